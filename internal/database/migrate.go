package database

import (
	"context"
	"database/sql"
)

// migrations creates the TaskSur schema when it does not exist yet.
// Statements are idempotent so Migrate can run on every startup.
// Foreign keys are declared without ON DELETE CASCADE: the cascading
// user delete is performed explicitly in a transaction by the
// repository layer so that partial failures roll back as a unit.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id             CHAR(36) PRIMARY KEY,
		email          VARCHAR(255) NOT NULL UNIQUE,
		password_hash  VARCHAR(255) NOT NULL,
		role           ENUM('admin','tasker','client') NOT NULL DEFAULT 'client',
		first_name     VARCHAR(100) NOT NULL DEFAULT '',
		last_name      VARCHAR(100) NOT NULL DEFAULT '',
		bio            TEXT,
		location       VARCHAR(255) NOT NULL DEFAULT '',
		phone          VARCHAR(50)  NOT NULL DEFAULT '',
		skills         JSON,
		hourly_rate    DECIMAL(10,2) NULL,
		rating         DECIMAL(3,2) NOT NULL DEFAULT 0,
		review_count   INT NOT NULL DEFAULT 0,
		total_earnings DECIMAL(12,2) NOT NULL DEFAULT 0,
		total_tasks    INT NOT NULL DEFAULT 0,
		created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id          CHAR(36) PRIMARY KEY,
		slug        VARCHAR(100) NOT NULL UNIQUE,
		name        VARCHAR(100) NOT NULL,
		description TEXT,
		icon        VARCHAR(100) NOT NULL DEFAULT '',
		color       VARCHAR(20)  NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id                 CHAR(36) PRIMARY KEY,
		title              VARCHAR(255) NOT NULL,
		description        TEXT NOT NULL,
		category_id        CHAR(36) NULL,
		client_id          CHAR(36) NOT NULL,
		assigned_tasker_id CHAR(36) NULL,
		budget             DECIMAL(12,2) NOT NULL DEFAULT 0,
		currency           VARCHAR(3) NOT NULL DEFAULT 'USD',
		location           VARCHAR(255) NOT NULL DEFAULT '',
		status             ENUM('open','assigned','in_progress','completed','cancelled') NOT NULL DEFAULT 'open',
		priority           ENUM('low','normal','high','urgent') NOT NULL DEFAULT 'normal',
		due_date           DATETIME NULL,
		completed_at       DATETIME NULL,
		created_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_tasks_client (client_id),
		KEY idx_tasks_tasker (assigned_tasker_id),
		KEY idx_tasks_status (status),
		CONSTRAINT fk_tasks_category FOREIGN KEY (category_id) REFERENCES categories(id),
		CONSTRAINT fk_tasks_client   FOREIGN KEY (client_id)   REFERENCES users(id)
	)`,
	`CREATE TABLE IF NOT EXISTS offers (
		id                 CHAR(36) PRIMARY KEY,
		task_id            CHAR(36) NOT NULL,
		tasker_id          CHAR(36) NOT NULL,
		amount             DECIMAL(12,2) NOT NULL,
		currency           VARCHAR(3) NOT NULL DEFAULT 'USD',
		message            TEXT,
		estimated_duration VARCHAR(100) NOT NULL DEFAULT '',
		status             ENUM('pending','accepted','rejected') NOT NULL DEFAULT 'pending',
		created_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_offers_task (task_id),
		KEY idx_offers_tasker (tasker_id),
		CONSTRAINT fk_offers_task   FOREIGN KEY (task_id)   REFERENCES tasks(id),
		CONSTRAINT fk_offers_tasker FOREIGN KEY (tasker_id) REFERENCES users(id)
	)`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id          CHAR(36) PRIMARY KEY,
		task_id     CHAR(36) NOT NULL,
		reviewer_id CHAR(36) NOT NULL,
		reviewee_id CHAR(36) NOT NULL,
		rating      TINYINT NOT NULL,
		comment     TEXT,
		created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_reviews_task_reviewer (task_id, reviewer_id),
		KEY idx_reviews_reviewee (reviewee_id),
		CONSTRAINT fk_reviews_task     FOREIGN KEY (task_id)     REFERENCES tasks(id),
		CONSTRAINT fk_reviews_reviewer FOREIGN KEY (reviewer_id) REFERENCES users(id),
		CONSTRAINT fk_reviews_reviewee FOREIGN KEY (reviewee_id) REFERENCES users(id)
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id          CHAR(36) PRIMARY KEY,
		task_id     CHAR(36) NULL,
		sender_id   CHAR(36) NOT NULL,
		receiver_id CHAR(36) NOT NULL,
		content     TEXT NOT NULL,
		is_read     TINYINT(1) NOT NULL DEFAULT 0,
		read_at     DATETIME NULL,
		created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_messages_task (task_id),
		KEY idx_messages_receiver (receiver_id),
		CONSTRAINT fk_messages_sender   FOREIGN KEY (sender_id)   REFERENCES users(id),
		CONSTRAINT fk_messages_receiver FOREIGN KEY (receiver_id) REFERENCES users(id)
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id         CHAR(36) PRIMARY KEY,
		user_id    CHAR(36) NOT NULL,
		type       VARCHAR(50) NOT NULL,
		title      VARCHAR(255) NOT NULL,
		message    TEXT NOT NULL,
		is_read    TINYINT(1) NOT NULL DEFAULT 0,
		message_id CHAR(36) NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_notifications_user (user_id),
		CONSTRAINT fk_notifications_user FOREIGN KEY (user_id) REFERENCES users(id)
	)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id         CHAR(36) PRIMARY KEY,
		user_id    CHAR(36) NOT NULL,
		order_id   VARCHAR(100) NOT NULL UNIQUE,
		amount     DECIMAL(12,2) NOT NULL,
		currency   VARCHAR(3) NOT NULL DEFAULT 'USD',
		status     ENUM('pending','completed','failed','cancelled') NOT NULL DEFAULT 'pending',
		method     ENUM('paypal','credit_card','bank_transfer') NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_payments_user (user_id),
		CONSTRAINT fk_payments_user FOREIGN KEY (user_id) REFERENCES users(id)
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		sid        CHAR(64) PRIMARY KEY,
		user_id    CHAR(36) NOT NULL,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_sessions_user (user_id),
		CONSTRAINT fk_sessions_user FOREIGN KEY (user_id) REFERENCES users(id)
	)`,
}

// Migrate applies the schema statements in order.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
