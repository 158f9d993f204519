package data

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/consentforms/consentforms/internal/data/cryptoutil"
	"github.com/consentforms/consentforms/internal/data/pgxutil"
	domainauth "github.com/consentforms/consentforms/internal/domain/auth"
	apperrors "github.com/consentforms/consentforms/internal/errors"
	"github.com/consentforms/consentforms/internal/ports"
)

// DirectoryConfigRepo stores the access-control configuration in Postgres with
// the service bind password encrypted at rest.
type DirectoryConfigRepo struct {
	DB  *sql.DB
	Enc cryptoutil.Encryptor
}

var _ ports.DirectoryConfigStore = (*DirectoryConfigRepo)(nil)

// NewDirectoryConfigRepo creates a new DirectoryConfigRepo.
func NewDirectoryConfigRepo(db *sql.DB, enc cryptoutil.Encryptor) *DirectoryConfigRepo {
	return &DirectoryConfigRepo{DB: db, Enc: enc}
}

const selectDirectoryConfig = `
SELECT server_url, base_search_dn, service_bind_dn, service_bind_password_enc,
       ca_certificate_path, read_group_dn, change_group_dn, full_group_dn
FROM directory_config
WHERE id = 1`

const upsertDirectoryConfig = `
INSERT INTO directory_config (
    id, server_url, base_search_dn, service_bind_dn, service_bind_password_enc,
    ca_certificate_path, read_group_dn, change_group_dn, full_group_dn, updated_at
) VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, now())
ON CONFLICT (id) DO UPDATE SET
    server_url = EXCLUDED.server_url,
    base_search_dn = EXCLUDED.base_search_dn,
    service_bind_dn = EXCLUDED.service_bind_dn,
    service_bind_password_enc = EXCLUDED.service_bind_password_enc,
    ca_certificate_path = EXCLUDED.ca_certificate_path,
    read_group_dn = EXCLUDED.read_group_dn,
    change_group_dn = EXCLUDED.change_group_dn,
    full_group_dn = EXCLUDED.full_group_dn,
    updated_at = now()`

const insertDirectoryConfigHistory = `
INSERT INTO directory_config_history (
    server_url, base_search_dn, service_bind_dn, insecure,
    read_group_dn, change_group_dn, full_group_dn
) VALUES ($1, $2, $3, $4, $5, $6, $7)`

// Load reads the record. No row yields the zero record (setup mode).
func (r *DirectoryConfigRepo) Load(ctx context.Context) (domainauth.DirectoryConfig, error) {
	var (
		cfg    domainauth.DirectoryConfig
		encPwd string
	)
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, selectDirectoryConfig).Scan(
			&cfg.ServerURL,
			&cfg.BaseSearchDN,
			&cfg.ServiceBindDN,
			&encPwd,
			&cfg.CACertificatePath,
			&cfg.GroupDNs.Read,
			&cfg.GroupDNs.Change,
			&cfg.GroupDNs.Full,
		)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return domainauth.DirectoryConfig{}, nil
	}
	if err != nil {
		return domainauth.DirectoryConfig{}, apperrors.MapDBError(err)
	}

	if encPwd != "" {
		pt, decErr := r.Enc.Decrypt(encPwd)
		if decErr != nil {
			return domainauth.DirectoryConfig{}, apperrors.Wrap(decErr, apperrors.ErrCodeConfiguration,
				"decrypt service bind password; check SECRETS_ENCRYPTION_KEY")
		}
		cfg.ServiceBindPassword = string(pt)
	}
	return cfg, nil
}

// Save upserts the record and appends a password-free history row in one transaction.
func (r *DirectoryConfigRepo) Save(ctx context.Context, cfg domainauth.DirectoryConfig) error {
	var encPwd string
	if cfg.ServiceBindPassword != "" {
		var err error
		encPwd, err = r.Enc.Encrypt([]byte(cfg.ServiceBindPassword))
		if err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeInternal, "encrypt service bind password")
		}
	}

	err := pgxutil.WithPgxTx(ctx, r.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, upsertDirectoryConfig,
			cfg.ServerURL,
			cfg.BaseSearchDN,
			cfg.ServiceBindDN,
			encPwd,
			cfg.CACertificatePath,
			cfg.GroupDNs.Read,
			cfg.GroupDNs.Change,
			cfg.GroupDNs.Full,
		); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, insertDirectoryConfigHistory,
			cfg.ServerURL,
			cfg.BaseSearchDN,
			cfg.ServiceBindDN,
			cfg.Insecure(),
			cfg.GroupDNs.Read,
			cfg.GroupDNs.Change,
			cfg.GroupDNs.Full,
		)
		return err
	})
	return apperrors.MapDBError(err)
}
