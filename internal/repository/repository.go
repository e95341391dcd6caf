package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/cashflow-forecast/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser creates a new user in the database
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO bank.users (username, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, user.Username, user.Email, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindUserByEmail retrieves a user by email
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, username, email, password_hash, created_at, updated_at
		FROM bank.users
		WHERE email = $1`
	err := r.db.QueryRowContext(ctx, query, email).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// ListForecastUsers returns every user owning at least one active rule
func (r *Repository) ListForecastUsers(ctx context.Context) ([]models.User, error) {
	query := `
		SELECT u.id, u.username, u.email
		FROM bank.users u
		WHERE EXISTS (
			SELECT 1 FROM bank.recurring_rules rr
			WHERE rr.user_id = u.id AND rr.is_active
		)
		ORDER BY u.id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list forecast users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ListAccounts returns the accounts owned by a user
func (r *Repository) ListAccounts(ctx context.Context, userID int64) ([]models.Account, error) {
	query := `
		SELECT id, user_id, balance, currency, created_at, updated_at
		FROM bank.accounts
		WHERE user_id = $1
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.UserID, &a.Balance, &a.Currency, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// ListClearedExpenses returns the user's cleared expense transactions in [from, to)
func (r *Repository) ListClearedExpenses(ctx context.Context, userID int64, from, to time.Time) ([]models.Transaction, error) {
	query := `
		SELECT t.id, t.account_id, t.amount, t.kind, t.status, t.description, t.occurred_at
		FROM bank.transactions t
		JOIN bank.accounts a ON a.id = t.account_id
		WHERE a.user_id = $1 AND t.kind = $2 AND t.status = $3
		  AND t.occurred_at >= $4 AND t.occurred_at < $5
		ORDER BY t.occurred_at`
	rows, err := r.db.QueryContext(ctx, query, userID,
		models.TransactionKindExpense, models.TransactionStatusCleared, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		if err := rows.Scan(&tx.ID, &tx.AccountID, &tx.Amount, &tx.Kind, &tx.Status, &tx.Description, &tx.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// GetForecastSettings returns the user's overrides; a missing row yields empty settings
func (r *Repository) GetForecastSettings(ctx context.Context, userID int64) (models.ForecastSettings, error) {
	settings := models.ForecastSettings{UserID: userID}
	query := `
		SELECT manual_daily_burn_rate, safety_threshold
		FROM bank.forecast_settings
		WHERE user_id = $1`
	err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&settings.ManualDailyBurnRate, &settings.SafetyThreshold)
	if errors.Is(err, sql.ErrNoRows) {
		return settings, nil
	}
	if err != nil {
		return settings, fmt.Errorf("failed to get forecast settings: %w", err)
	}
	return settings, nil
}

// SaveSnapshot stores a rendered forecast report
func (r *Repository) SaveSnapshot(ctx context.Context, snapshot *models.ForecastSnapshot) error {
	query := `
		INSERT INTO bank.forecast_snapshots (user_id, generated_at, horizon_days, report)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, generated_at) DO UPDATE
		SET horizon_days = EXCLUDED.horizon_days, report = EXCLUDED.report`
	_, err := r.db.ExecContext(ctx, query, snapshot.UserID, snapshot.GeneratedAt, snapshot.HorizonDays, []byte(snapshot.Report))
	if err != nil {
		return fmt.Errorf("failed to save forecast snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the most recent stored forecast for a user
func (r *Repository) LatestSnapshot(ctx context.Context, userID int64) (*models.ForecastSnapshot, error) {
	snapshot := &models.ForecastSnapshot{}
	var report []byte
	query := `
		SELECT user_id, generated_at, horizon_days, report
		FROM bank.forecast_snapshots
		WHERE user_id = $1
		ORDER BY generated_at DESC
		LIMIT 1`
	err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&snapshot.UserID, &snapshot.GeneratedAt, &snapshot.HorizonDays, &report)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("snapshot for user %d: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get forecast snapshot: %w", err)
	}
	snapshot.Report = report
	return snapshot, nil
}

const ruleColumns = `id, user_id, kind, amount, currency, category_key, description, recurrence,
		start_date, end_date, exception_dates::text[], is_active, last_generated_at, next_execution_at,
		created_at, updated_at`

// CreateRule inserts a recurring rule, assigning an ID when missing
func (r *Repository) CreateRule(ctx context.Context, rule *models.RecurringRule) error {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	exceptions := make([]string, 0, len(rule.ExceptionDates))
	for _, d := range rule.ExceptionDates {
		exceptions = append(exceptions, d.Format(time.DateOnly))
	}

	query := `
		INSERT INTO bank.recurring_rules (id, user_id, kind, amount, currency, category_key, description,
			recurrence, start_date, end_date, exception_dates, is_active, next_execution_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::date[], $12, $13, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		rule.ID, rule.UserID, string(rule.Kind), rule.Amount, rule.Currency, rule.CategoryKey, rule.Description,
		rule.Recurrence, rule.StartDate, nullTime(rule.EndDate), pq.Array(exceptions), rule.IsActive,
		nullTime(rule.NextExecutionAt),
	).Scan(&rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create recurring rule: %w", err)
	}
	return nil
}

// ListRules returns every rule of a user, active or not
func (r *Repository) ListRules(ctx context.Context, userID int64) ([]models.RecurringRule, error) {
	query := `SELECT ` + ruleColumns + `
		FROM bank.recurring_rules
		WHERE user_id = $1
		ORDER BY start_date, id`
	return r.queryRules(ctx, query, userID)
}

// ListActiveRules returns the active rules of a user
func (r *Repository) ListActiveRules(ctx context.Context, userID int64) ([]models.RecurringRule, error) {
	query := `SELECT ` + ruleColumns + `
		FROM bank.recurring_rules
		WHERE user_id = $1 AND is_active
		ORDER BY start_date, id`
	return r.queryRules(ctx, query, userID)
}

// ListAllActiveRules returns the active rules of every user
func (r *Repository) ListAllActiveRules(ctx context.Context) ([]models.RecurringRule, error) {
	query := `SELECT ` + ruleColumns + `
		FROM bank.recurring_rules
		WHERE is_active
		ORDER BY user_id, start_date, id`
	return r.queryRules(ctx, query)
}

// UpdateRuleSchedule records a regeneration pass over a rule
func (r *Repository) UpdateRuleSchedule(ctx context.Context, id uuid.UUID, generatedAt time.Time, next *time.Time, active bool) error {
	query := `
		UPDATE bank.recurring_rules
		SET last_generated_at = $2, next_execution_at = $3, is_active = $4, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, generatedAt, nullTime(next), active)
	if err != nil {
		return fmt.Errorf("failed to update recurring rule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update recurring rule: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("recurring rule %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *Repository) queryRules(ctx context.Context, query string, args ...any) ([]models.RecurringRule, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list recurring rules: %w", err)
	}
	defer rows.Close()

	var rules []models.RecurringRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func scanRule(rows *sql.Rows) (models.RecurringRule, error) {
	var (
		rule       models.RecurringRule
		kind       string
		endDate    sql.NullTime
		exceptions pq.StringArray
		lastGen    sql.NullTime
		nextExec   sql.NullTime
	)
	err := rows.Scan(&rule.ID, &rule.UserID, &kind, &rule.Amount, &rule.Currency, &rule.CategoryKey,
		&rule.Description, &rule.Recurrence, &rule.StartDate, &endDate, &exceptions, &rule.IsActive,
		&lastGen, &nextExec, &rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		return rule, fmt.Errorf("failed to scan recurring rule: %w", err)
	}

	rule.Kind = models.RuleKind(kind)
	rule.EndDate = timePtr(endDate)
	rule.LastGeneratedAt = timePtr(lastGen)
	rule.NextExecutionAt = timePtr(nextExec)
	for _, raw := range exceptions {
		d, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return rule, fmt.Errorf("failed to parse exception date %q of rule %s: %w", raw, rule.ID, err)
		}
		rule.ExceptionDates = append(rule.ExceptionDates, d)
	}
	return rule, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
