package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hongkongkiwi/know-your-people/internal/application/ports"
	"github.com/hongkongkiwi/know-your-people/internal/domain"
	domerrors "github.com/hongkongkiwi/know-your-people/internal/domain/errors"
)

// PersonRepository implements ports.PersonStore on Postgres. The closure
// updates run inside a transaction holding a row lock (SELECT ... FOR
// UPDATE), so the mutation always sees the current persisted value and
// concurrent attempts against the same person serialize instead of racing.
type PersonRepository struct {
	pool *pgxpool.Pool
}

func NewPersonRepository(pool *pgxpool.Pool) *PersonRepository {
	return &PersonRepository{pool: pool}
}

const (
	insertPersonSQL = `INSERT INTO people
		(id, password_hash, login_attempts, lock_until, is_admin_locked, last_login_ip,
		 second_factor_secret, second_factor_confirmed_at,
		 suffix, first_name, middle_name, last_name, birth_date, gender, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	insertChannelSQL = `INSERT INTO contact_channels
		(id, person_id, kind, country, address, is_verified, verification_code, code_issued_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	insertIdentificationSQL = `INSERT INTO identifications
		(id, person_id, id_number, id_type, id_issuance, id_expiry, is_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	insertPostalAddressSQL = `INSERT INTO postal_addresses
		(id, person_id, line1, line2, line3, city, state, zip, country,
		 is_country_of_residence, is_country_of_citizenship)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	personIDByAddressSQL = `SELECT person_id FROM contact_channels WHERE address = $1`
	personIDByCodeSQL    = `SELECT person_id FROM contact_channels WHERE verification_code = $1`

	selectPersonSQL = `SELECT id, password_hash, login_attempts, lock_until, is_admin_locked,
		last_login_ip, second_factor_secret, second_factor_confirmed_at,
		suffix, first_name, middle_name, last_name, birth_date, gender, created_at, updated_at
		FROM people WHERE id = $1`

	selectChannelsSQL = `SELECT id, kind, country, address, is_verified, verification_code, code_issued_at
		FROM contact_channels WHERE person_id = $1 ORDER BY created_at, id`

	selectIdentificationsSQL = `SELECT id, id_number, id_type, id_issuance, id_expiry, is_verified
		FROM identifications WHERE person_id = $1 ORDER BY id`

	selectPostalAddressesSQL = `SELECT id, line1, line2, line3, city, state, zip, country,
		is_country_of_residence, is_country_of_citizenship
		FROM postal_addresses WHERE person_id = $1 ORDER BY id`

	credentialsForUpdateSQL = `SELECT password_hash, login_attempts, lock_until, is_admin_locked,
		last_login_ip, second_factor_secret, second_factor_confirmed_at
		FROM people WHERE id = $1 FOR UPDATE`

	updateCredentialsSQL = `UPDATE people SET password_hash = $1, login_attempts = $2, lock_until = $3,
		is_admin_locked = $4, last_login_ip = $5, second_factor_secret = $6,
		second_factor_confirmed_at = $7, updated_at = NOW() WHERE id = $8`

	channelForUpdateSQL = `SELECT id, person_id, kind, country, address, is_verified, verification_code, code_issued_at
		FROM contact_channels WHERE address = $1 FOR UPDATE`

	updateChannelSQL = `UPDATE contact_channels SET is_verified = $1, verification_code = $2,
		code_issued_at = $3, updated_at = NOW() WHERE id = $4`

	expireCodesSQL = `UPDATE contact_channels SET verification_code = NULL, code_issued_at = NULL,
		updated_at = NOW() WHERE verification_code IS NOT NULL AND code_issued_at < $1`
)

func (r *PersonRepository) Create(ctx context.Context, person *domain.Person) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, insertPersonSQL,
		person.ID.UUID, person.Login.PasswordHash, person.Login.LoginAttempts, person.Login.LockUntil,
		person.Login.AdminLocked, person.Login.LastLoginIP,
		person.Login.SecondFactorSecret, person.Login.SecondFactorConfirmedAt,
		person.Info.Suffix, person.Info.FirstName, person.Info.MiddleName, person.Info.LastName,
		person.Info.BirthDate, person.Info.Gender, person.CreatedAt, person.UpdatedAt)
	if err != nil {
		return err
	}
	for _, ch := range person.Channels {
		_, err = tx.Exec(ctx, insertChannelSQL,
			ch.ID, person.ID.UUID, string(ch.Kind), ch.Country, ch.Address, ch.Verified, ch.Code, ch.CodeIssuedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return domerrors.ErrAddressTaken
			}
			return err
		}
	}
	for _, ident := range person.Identifications {
		_, err = tx.Exec(ctx, insertIdentificationSQL,
			ident.ID, person.ID.UUID, ident.Number, ident.Type, ident.IssuedAt, ident.Expiry, ident.Verified)
		if err != nil {
			return err
		}
	}
	for _, addr := range person.Addresses {
		_, err = tx.Exec(ctx, insertPostalAddressSQL,
			addr.ID, person.ID.UUID, addr.Line1, addr.Line2, addr.Line3, addr.City, addr.State,
			addr.Zip, addr.Country, addr.CountryOfResidence, addr.CountryOfCitizenship)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *PersonRepository) GetByID(ctx context.Context, id domain.PersonID) (*domain.Person, error) {
	return r.loadPerson(ctx, id.UUID)
}

func (r *PersonRepository) GetByAddress(ctx context.Context, address string) (*domain.Person, error) {
	return r.lookup(ctx, personIDByAddressSQL, address)
}

func (r *PersonRepository) GetByVerificationCode(ctx context.Context, code string) (*domain.Person, error) {
	return r.lookup(ctx, personIDByCodeSQL, code)
}

func (r *PersonRepository) lookup(ctx context.Context, sql, arg string) (*domain.Person, error) {
	var personID uuid.UUID
	if err := r.pool.QueryRow(ctx, sql, arg).Scan(&personID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return r.loadPerson(ctx, personID)
}

func (r *PersonRepository) loadPerson(ctx context.Context, id uuid.UUID) (*domain.Person, error) {
	p := &domain.Person{}
	var personID uuid.UUID
	err := r.pool.QueryRow(ctx, selectPersonSQL, id).Scan(
		&personID, &p.Login.PasswordHash, &p.Login.LoginAttempts, &p.Login.LockUntil,
		&p.Login.AdminLocked, &p.Login.LastLoginIP,
		&p.Login.SecondFactorSecret, &p.Login.SecondFactorConfirmedAt,
		&p.Info.Suffix, &p.Info.FirstName, &p.Info.MiddleName, &p.Info.LastName,
		&p.Info.BirthDate, &p.Info.Gender, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	p.ID = domain.NewPersonID(personID)

	rows, err := r.pool.Query(ctx, selectChannelsSQL, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var ch domain.ContactChannel
		var kind string
		if err := rows.Scan(&ch.ID, &kind, &ch.Country, &ch.Address, &ch.Verified, &ch.Code, &ch.CodeIssuedAt); err != nil {
			return nil, err
		}
		ch.Kind = domain.ChannelKind(kind)
		p.Channels = append(p.Channels, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	idRows, err := r.pool.Query(ctx, selectIdentificationsSQL, id)
	if err != nil {
		return nil, err
	}
	defer idRows.Close()
	for idRows.Next() {
		var ident domain.Identification
		if err := idRows.Scan(&ident.ID, &ident.Number, &ident.Type, &ident.IssuedAt, &ident.Expiry, &ident.Verified); err != nil {
			return nil, err
		}
		p.Identifications = append(p.Identifications, ident)
	}
	if err := idRows.Err(); err != nil {
		return nil, err
	}

	addrRows, err := r.pool.Query(ctx, selectPostalAddressesSQL, id)
	if err != nil {
		return nil, err
	}
	defer addrRows.Close()
	for addrRows.Next() {
		var addr domain.PostalAddress
		if err := addrRows.Scan(&addr.ID, &addr.Line1, &addr.Line2, &addr.Line3, &addr.City, &addr.State,
			&addr.Zip, &addr.Country, &addr.CountryOfResidence, &addr.CountryOfCitizenship); err != nil {
			return nil, err
		}
		p.Addresses = append(p.Addresses, addr)
	}
	if err := addrRows.Err(); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PersonRepository) UpdateCredentials(ctx context.Context, id domain.PersonID, mutate ports.CredentialsMutation) (domain.Credentials, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Credentials{}, err
	}
	defer tx.Rollback(ctx)

	var creds domain.Credentials
	err = tx.QueryRow(ctx, credentialsForUpdateSQL, id.UUID).Scan(
		&creds.PasswordHash, &creds.LoginAttempts, &creds.LockUntil, &creds.AdminLocked,
		&creds.LastLoginIP, &creds.SecondFactorSecret, &creds.SecondFactorConfirmedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Credentials{}, domerrors.ErrNotFound
		}
		return domain.Credentials{}, err
	}
	next, err := mutate(creds)
	if err != nil {
		return domain.Credentials{}, err
	}
	_, err = tx.Exec(ctx, updateCredentialsSQL,
		next.PasswordHash, next.LoginAttempts, next.LockUntil, next.AdminLocked,
		next.LastLoginIP, next.SecondFactorSecret, next.SecondFactorConfirmedAt, id.UUID)
	if err != nil {
		return domain.Credentials{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Credentials{}, err
	}
	return next, nil
}

func (r *PersonRepository) UpdateChannel(ctx context.Context, address string, mutate ports.ChannelMutation) (domain.ContactChannel, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.ContactChannel{}, err
	}
	defer tx.Rollback(ctx)

	var ch domain.ContactChannel
	var personID uuid.UUID
	var kind string
	err = tx.QueryRow(ctx, channelForUpdateSQL, address).Scan(
		&ch.ID, &personID, &kind, &ch.Country, &ch.Address, &ch.Verified, &ch.Code, &ch.CodeIssuedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ContactChannel{}, domerrors.ErrNotFound
		}
		return domain.ContactChannel{}, err
	}
	ch.Kind = domain.ChannelKind(kind)
	next, err := mutate(ch)
	if err != nil {
		return domain.ContactChannel{}, err
	}
	_, err = tx.Exec(ctx, updateChannelSQL, next.Verified, next.Code, next.CodeIssuedAt, ch.ID)
	if err != nil {
		return domain.ContactChannel{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.ContactChannel{}, err
	}
	return next, nil
}

func (r *PersonRepository) ExpireCodesIssuedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := r.pool.Exec(ctx, expireCodesSQL, cutoff)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

var _ ports.PersonStore = (*PersonRepository)(nil)
