/*

Protocol-config store. Owns the canonical list of yield sources; the
valuation core only ever asks for the enabled entries. Mutations happen
exclusively through the explicit operations here (create, update, toggle,
delete) so the config lifecycle stays auditable.

*/

package state

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yieldlens/yieldlens/internal/logger"
	"github.com/yieldlens/yieldlens/internal/types"
)

var storeLogger = logger.GetForComponent("protocol_store")

var (
	ErrConfigNotFound = errors.New("protocol config not found")
	ErrInvalidConfig  = errors.New("invalid protocol config")
)

// ValidateConfig checks the template-dependent shape of a config before it
// is persisted.
func ValidateConfig(cfg types.ProtocolConfig) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidConfig)
	}
	if cfg.ChainID == 0 {
		return fmt.Errorf("%w: chain id is required", ErrInvalidConfig)
	}

	switch cfg.Template {
	case types.TemplateConcentratedLiquidity:
		if cfg.PositionManager == "" || cfg.Factory == "" {
			return fmt.Errorf("%w: concentrated-liquidity config needs position manager and factory", ErrInvalidConfig)
		}
		if cfg.Kind != types.KindLP {
			return fmt.Errorf("%w: concentrated-liquidity positions are always kind %q", ErrInvalidConfig, types.KindLP)
		}
	case types.TemplateVault:
		if cfg.VaultAddress == "" {
			return fmt.Errorf("%w: vault config needs a vault address", ErrInvalidConfig)
		}
		if cfg.Underlying == nil {
			return fmt.Errorf("%w: vault config needs an underlying token descriptor", ErrInvalidConfig)
		}
		if cfg.Kind == types.KindLP {
			return fmt.Errorf("%w: vault positions cannot be kind %q", ErrInvalidConfig, types.KindLP)
		}
	default:
		return fmt.Errorf("%w: unknown template %q", ErrInvalidConfig, cfg.Template)
	}

	switch cfg.Kind {
	case types.KindLending, types.KindStaking, types.KindLP, types.KindBond:
	default:
		return fmt.Errorf("%w: unknown position kind %q", ErrInvalidConfig, cfg.Kind)
	}
	return nil
}

// SaveConfig inserts a new protocol config, assigning an ID and creation
// timestamp when absent.
func SaveConfig(cfg types.ProtocolConfig) (types.ProtocolConfig, error) {
	if DB == nil {
		return types.ProtocolConfig{}, errors.New("database not initialized")
	}
	if err := ValidateConfig(cfg); err != nil {
		return types.ProtocolConfig{}, err
	}

	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = time.Now().UTC()
	}

	underlying, err := marshalUnderlying(cfg.Underlying)
	if err != nil {
		return types.ProtocolConfig{}, err
	}

	_, err = DB.Exec(`
		INSERT INTO protocol_configs
			(id, name, logo, template, enabled, chain_id, vault_address, position_manager, factory, underlying, fallback_apy, position_kind, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		cfg.ID, cfg.Name, cfg.Logo, string(cfg.Template), cfg.Enabled, cfg.ChainID,
		cfg.VaultAddress, cfg.PositionManager, cfg.Factory, underlying,
		cfg.FallbackAPY, string(cfg.Kind), cfg.CreatedAt)
	if err != nil {
		return types.ProtocolConfig{}, fmt.Errorf("failed to insert protocol config: %w", err)
	}

	storeLogger.Info().
		Str("id", cfg.ID).
		Str("name", cfg.Name).
		Str("template", string(cfg.Template)).
		Msg("Protocol config saved")
	return cfg, nil
}

// UpdateConfig rewrites a stored config under its existing ID.
func UpdateConfig(cfg types.ProtocolConfig) error {
	if DB == nil {
		return errors.New("database not initialized")
	}
	if cfg.ID == "" {
		return fmt.Errorf("%w: id is required for update", ErrInvalidConfig)
	}
	if err := ValidateConfig(cfg); err != nil {
		return err
	}

	underlying, err := marshalUnderlying(cfg.Underlying)
	if err != nil {
		return err
	}

	result, err := DB.Exec(`
		UPDATE protocol_configs SET
			name = $2, logo = $3, template = $4, enabled = $5, chain_id = $6,
			vault_address = $7, position_manager = $8, factory = $9,
			underlying = $10, fallback_apy = $11, position_kind = $12
		WHERE id = $1`,
		cfg.ID, cfg.Name, cfg.Logo, string(cfg.Template), cfg.Enabled, cfg.ChainID,
		cfg.VaultAddress, cfg.PositionManager, cfg.Factory, underlying,
		cfg.FallbackAPY, string(cfg.Kind))
	if err != nil {
		return fmt.Errorf("failed to update protocol config: %w", err)
	}
	return checkAffected(result, cfg.ID)
}

// ToggleConfig flips a config's enabled flag and returns the new value.
func ToggleConfig(id string) (bool, error) {
	if DB == nil {
		return false, errors.New("database not initialized")
	}

	var enabled bool
	err := DB.QueryRow(`
		UPDATE protocol_configs SET enabled = NOT enabled WHERE id = $1
		RETURNING enabled`, id).Scan(&enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("%w: %s", ErrConfigNotFound, id)
	}
	if err != nil {
		return false, fmt.Errorf("failed to toggle protocol config: %w", err)
	}

	storeLogger.Info().Str("id", id).Bool("enabled", enabled).Msg("Protocol config toggled")
	return enabled, nil
}

// DeleteConfig removes a config permanently.
func DeleteConfig(id string) error {
	if DB == nil {
		return errors.New("database not initialized")
	}
	result, err := DB.Exec(`DELETE FROM protocol_configs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete protocol config: %w", err)
	}
	return checkAffected(result, id)
}

// ListConfigs returns every stored config, newest first.
func ListConfigs() ([]types.ProtocolConfig, error) {
	return queryConfigs(`SELECT id, name, logo, template, enabled, chain_id,
		vault_address, position_manager, factory, underlying, fallback_apy, position_kind, created_at
		FROM protocol_configs ORDER BY created_at DESC`)
}

// ListEnabledConfigs returns only the enabled configs, the view the
// valuation core consumes.
func ListEnabledConfigs() ([]types.ProtocolConfig, error) {
	return queryConfigs(`SELECT id, name, logo, template, enabled, chain_id,
		vault_address, position_manager, factory, underlying, fallback_apy, position_kind, created_at
		FROM protocol_configs WHERE enabled ORDER BY created_at DESC`)
}

// CountConfigs reports how many configs are stored.
func CountConfigs() (int, error) {
	if DB == nil {
		return 0, errors.New("database not initialized")
	}
	var count int
	if err := DB.QueryRow(`SELECT COUNT(*) FROM protocol_configs`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count protocol configs: %w", err)
	}
	return count, nil
}

func queryConfigs(query string) ([]types.ProtocolConfig, error) {
	if DB == nil {
		return nil, errors.New("database not initialized")
	}

	rows, err := DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query protocol configs: %w", err)
	}
	defer rows.Close()

	var configs []types.ProtocolConfig
	for rows.Next() {
		var (
			cfg        types.ProtocolConfig
			template   string
			kind       string
			underlying sql.NullString
		)
		if err := rows.Scan(&cfg.ID, &cfg.Name, &cfg.Logo, &template, &cfg.Enabled, &cfg.ChainID,
			&cfg.VaultAddress, &cfg.PositionManager, &cfg.Factory, &underlying,
			&cfg.FallbackAPY, &kind, &cfg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan protocol config row: %w", err)
		}
		cfg.Template = types.ProtocolTemplate(template)
		cfg.Kind = types.PositionKind(kind)
		if underlying.Valid && underlying.String != "" {
			var u types.UnderlyingToken
			if err := json.Unmarshal([]byte(underlying.String), &u); err != nil {
				storeLogger.Warn().
					Err(err).
					Str("id", cfg.ID).
					Msg("Dropping unparseable underlying token descriptor")
			} else {
				cfg.Underlying = &u
			}
		}
		configs = append(configs, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("protocol config row iteration failed: %w", err)
	}
	return configs, nil
}

func marshalUnderlying(u *types.UnderlyingToken) (interface{}, error) {
	if u == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("failed to encode underlying token: %w", err)
	}
	return string(encoded), nil
}

func checkAffected(result sql.Result, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrConfigNotFound, id)
	}
	return nil
}
