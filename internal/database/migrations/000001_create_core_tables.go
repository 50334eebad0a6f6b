package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// CreateCoreTables creates the wallet, withdrawal and log tables
func CreateCoreTables() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_core_tables",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS wallets (
					id UUID PRIMARY KEY,
					provider_id UUID NOT NULL UNIQUE,
					currency VARCHAR(3) NOT NULL DEFAULT 'CNY',
					available DECIMAL(20,2) NOT NULL DEFAULT 0,
					reserved DECIMAL(20,2) NOT NULL DEFAULT 0,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
				);
			`).Error; err != nil {
				return err
			}

			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS withdrawals (
					id UUID PRIMARY KEY,
					wallet_id UUID NOT NULL REFERENCES wallets(id),
					amount DECIMAL(20,2) NOT NULL,
					fee DECIMAL(20,2) NOT NULL DEFAULT 0,
					actual_amount DECIMAL(20,2) NOT NULL,
					method VARCHAR(32) NOT NULL,
					account VARCHAR(128) NOT NULL,
					status VARCHAR(20) NOT NULL,
					review_note TEXT,
					fail_reason TEXT,
					transfer_no VARCHAR(100) UNIQUE,
					reviewed_by UUID,
					reviewed_at TIMESTAMP WITH TIME ZONE,
					completed_at TIMESTAMP WITH TIME ZONE,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_withdrawals_wallet_id ON withdrawals(wallet_id);
				CREATE INDEX IF NOT EXISTS idx_withdrawals_status ON withdrawals(status);
			`).Error; err != nil {
				return err
			}

			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS audit_logs (
					id UUID PRIMARY KEY,
					actor_id UUID NOT NULL,
					actor_type VARCHAR(20) NOT NULL,
					action VARCHAR(50) NOT NULL,
					withdrawal_id UUID,
					before_status VARCHAR(20),
					after_status VARCHAR(20),
					detail JSONB,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_audit_logs_actor_id ON audit_logs(actor_id);
				CREATE INDEX IF NOT EXISTS idx_audit_logs_withdrawal_id ON audit_logs(withdrawal_id);
			`).Error; err != nil {
				return err
			}

			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS operation_logs (
					id UUID PRIMARY KEY,
					operator_id UUID NOT NULL,
					action VARCHAR(50) NOT NULL,
					withdrawal_id UUID NOT NULL,
					from_status VARCHAR(20) NOT NULL,
					to_status VARCHAR(20) NOT NULL,
					note TEXT,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_operation_logs_operator_id ON operation_logs(operator_id);
				CREATE INDEX IF NOT EXISTS idx_operation_logs_withdrawal_id ON operation_logs(withdrawal_id);
			`).Error; err != nil {
				return err
			}

			return tx.Exec(`
				CREATE TABLE IF NOT EXISTS admin_users (
					id UUID PRIMARY KEY,
					username VARCHAR(255) NOT NULL UNIQUE,
					password VARCHAR(255) NOT NULL,
					is_admin BOOLEAN DEFAULT FALSE,
					can_review_withdrawals BOOLEAN DEFAULT FALSE,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
				);
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec(`
				DROP TABLE IF EXISTS operation_logs;
				DROP TABLE IF EXISTS audit_logs;
				DROP TABLE IF EXISTS withdrawals;
				DROP TABLE IF EXISTS wallets;
				DROP TABLE IF EXISTS admin_users;
			`).Error
		},
	}
}
