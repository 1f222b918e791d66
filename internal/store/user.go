package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lidercheck/apiserver/types"
)

const userColumns = `matricula, name, role, shift, email, password, is_admin`

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (types.User, error) {
	var (
		user                                   types.User
		name, role, shift, email, passwordHash sql.NullString
		isAdmin                                sql.NullInt64
	)
	if err := row.Scan(&user.Matricula, &name, &role, &shift, &email, &passwordHash, &isAdmin); err != nil {
		return types.User{}, err
	}
	user.Name = nullString(name)
	user.Role = nullString(role)
	user.Shift = nullString(shift)
	user.Email = nullString(email)
	user.PasswordHash = nullString(passwordHash)
	user.IsAdmin = nullInt(isAdmin) != 0
	return user, nil
}

func (r *UserRepository) Get(ctx context.Context, matricula string) (types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE matricula = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, matricula))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) List(ctx context.Context) ([]types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY matricula`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]types.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// Create inserts a new user. ErrAlreadyExists is returned when the matricula
// is taken.
func (r *UserRepository) Create(ctx context.Context, user types.User) error {
	const query = `
		INSERT INTO users (matricula, name, role, shift, email, password, is_admin)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (matricula) DO NOTHING`
	result, err := r.db.ExecContext(ctx, query,
		user.Matricula,
		user.Name,
		user.Role,
		user.Shift,
		user.Email,
		user.PasswordHash,
		boolToInt(user.IsAdmin),
	)
	if err != nil {
		return err
	}
	if err := expectAffected(result); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Merge creates the user with the patched fields or, when matricula is
// taken, overwrites only the fields the patch sets. A new user without a
// shift gets shift 1.
func (r *UserRepository) Merge(ctx context.Context, matricula string, patch types.UserPatch) error {
	var isAdmin *int
	if patch.IsAdmin != nil {
		v := boolToInt(*patch.IsAdmin)
		isAdmin = &v
	}
	return merge(ctx, r.db, "users", "matricula", matricula, []mergeColumn{
		patchColumn("name", patch.Name, nil),
		patchColumn("role", patch.Role, nil),
		patchColumn("shift", patch.Shift, "1"),
		patchColumn("email", patch.Email, nil),
		patchColumn("password", patch.PasswordHash, nil),
		patchColumn("is_admin", isAdmin, 0),
	})
}

// Update rewrites the profile of the user currently keyed by original. The
// matricula itself may change. The password is only replaced when
// user.PasswordHash is set.
func (r *UserRepository) Update(ctx context.Context, original string, user types.User) error {
	var (
		result sql.Result
		err    error
	)
	if user.PasswordHash == "" {
		const query = `
			UPDATE users
			SET matricula = $1,
				name = $2,
				role = $3,
				shift = $4,
				email = $5,
				is_admin = $6
			WHERE matricula = $7`
		result, err = r.db.ExecContext(ctx, query,
			user.Matricula, user.Name, user.Role, user.Shift, user.Email, boolToInt(user.IsAdmin), original)
	} else {
		const query = `
			UPDATE users
			SET matricula = $1,
				name = $2,
				role = $3,
				shift = $4,
				email = $5,
				is_admin = $6,
				password = $7
			WHERE matricula = $8`
		result, err = r.db.ExecContext(ctx, query,
			user.Matricula, user.Name, user.Role, user.Shift, user.Email, boolToInt(user.IsAdmin), user.PasswordHash, original)
	}
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, matricula, passwordHash string) error {
	const query = `UPDATE users SET password = $1 WHERE matricula = $2`
	result, err := r.db.ExecContext(ctx, query, passwordHash, matricula)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func (r *UserRepository) Delete(ctx context.Context, matricula string) error {
	const query = `DELETE FROM users WHERE matricula = $1`
	result, err := r.db.ExecContext(ctx, query, matricula)
	if err != nil {
		return err
	}
	return expectAffected(result)
}
