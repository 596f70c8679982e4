package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/proofoftom/walletgate/core"
	"github.com/proofoftom/walletgate/eth"
	"github.com/proofoftom/walletgate/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id         TEXT PRIMARY KEY,
	username   TEXT NOT NULL UNIQUE,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS wallet_links (
	wallet_address TEXT PRIMARY KEY,
	account_id     TEXT NOT NULL REFERENCES accounts(id),
	created_at     TIMESTAMP NOT NULL,
	last_used_at   TIMESTAMP NOT NULL,
	active         INTEGER NOT NULL DEFAULT 1
);
`

// SQLiteDirectory is a UserDirectory backed by SQLite. Wallet-address
// uniqueness is enforced by the wallet_links primary key, so a loser of a
// concurrent first-time race gets a constraint error rather than a duplicate
// link.
type SQLiteDirectory struct {
	db *sql.DB
}

// OpenSQLiteDirectory opens (and migrates) the directory database at path.
func OpenSQLiteDirectory(path string) (*SQLiteDirectory, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open directory database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate directory database: %w", err)
	}
	return &SQLiteDirectory{db: db}, nil
}

// Close closes the underlying database.
func (d *SQLiteDirectory) Close() error {
	return d.db.Close()
}

// FindByWalletAddress returns the account linked to the checksummed form of
// address, core.ErrAccountNotFound when no link exists, and
// core.ErrWalletDisabled when the link has been soft-revoked.
func (d *SQLiteDirectory) FindByWalletAddress(ctx context.Context, address string) (*core.Account, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT a.id, a.username, a.created_at, l.active
		FROM wallet_links l
		JOIN accounts a ON a.id = l.account_id
		WHERE l.wallet_address = ?`,
		eth.Checksum(address))

	var account core.Account
	var active bool
	if err := row.Scan(&account.ID, &account.Username, &account.CreatedAt, &active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrAccountNotFound
		}
		return nil, fmt.Errorf("%w: %v", core.ErrStoreOperationFailed, err)
	}
	if !active {
		return nil, core.ErrWalletDisabled
	}
	return &account, nil
}

// CreateAccountForWallet creates the account and its wallet link in one
// transaction. A concurrent creator for the same address loses on the
// primary-key constraint and gets core.ErrWalletAlreadyLinked.
func (d *SQLiteDirectory) CreateAccountForWallet(ctx context.Context, address string) (*core.Account, error) {
	checksummed := eth.Checksum(address)
	now := time.Now().UTC()
	account := &core.Account{
		ID:        uuid.New().String(),
		Username:  checksummed,
		CreatedAt: now,
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrStoreOperationFailed, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO accounts (id, username, created_at) VALUES (?, ?, ?)`,
		account.ID, account.Username, account.CreatedAt); err != nil {
		return nil, wrapSQLiteError(err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO wallet_links (wallet_address, account_id, created_at, last_used_at, active) VALUES (?, ?, ?, ?, 1)`,
		checksummed, account.ID, now, now); err != nil {
		return nil, wrapSQLiteError(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrStoreOperationFailed, err)
	}

	return account, nil
}

// TouchWallet updates the link's last-used timestamp.
func (d *SQLiteDirectory) TouchWallet(ctx context.Context, address string, at time.Time) error {
	if _, err := d.db.ExecContext(ctx,
		`UPDATE wallet_links SET last_used_at = ? WHERE wallet_address = ?`,
		at.UTC(), eth.Checksum(address)); err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreOperationFailed, err)
	}
	return nil
}

// DeactivateWallet soft-revokes a wallet link without deleting its history.
func (d *SQLiteDirectory) DeactivateWallet(ctx context.Context, address string) error {
	if _, err := d.db.ExecContext(ctx,
		`UPDATE wallet_links SET active = 0 WHERE wallet_address = ?`,
		eth.Checksum(address)); err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreOperationFailed, err)
	}
	return nil
}

func wrapSQLiteError(err error) error {
	// modernc.org/sqlite surfaces constraint failures as text only.
	if strings.Contains(err.Error(), "constraint failed") {
		return fmt.Errorf("%w: %v", core.ErrWalletAlreadyLinked, err)
	}
	return fmt.Errorf("%w: %v", core.ErrStoreOperationFailed, err)
}

var _ ports.UserDirectory = (*SQLiteDirectory)(nil)
