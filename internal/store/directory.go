package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/erazemk/odpad/internal/model"
)

// CreateDepartment creates a new department.
func CreateDepartment(ctx context.Context, db *sql.DB, name, location string) (*model.Department, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO departments (name, location) VALUES (?, ?)`, name, location,
	)
	if err != nil {
		return nil, fmt.Errorf("creating department: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting department id: %w", err)
	}

	return GetDepartment(ctx, db, id)
}

// GetDepartment returns a department by ID.
func GetDepartment(ctx context.Context, db *sql.DB, id int64) (*model.Department, error) {
	d := &model.Department{}
	err := db.QueryRowContext(ctx,
		`SELECT id, name, location FROM departments WHERE id = ?`, id,
	).Scan(&d.ID, &d.Name, &d.Location)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting department: %w", err)
	}
	return d, nil
}

// ListDepartments returns all departments.
func ListDepartments(ctx context.Context, db *sql.DB) ([]model.Department, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, name, location FROM departments ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing departments: %w", err)
	}
	defer rows.Close()

	var departments []model.Department
	for rows.Next() {
		var d model.Department
		if err := rows.Scan(&d.ID, &d.Name, &d.Location); err != nil {
			return nil, fmt.Errorf("scanning department: %w", err)
		}
		departments = append(departments, d)
	}
	return departments, rows.Err()
}

const vendorColumns = `id, company_name, contact_person, email, cpcb_registration_no, availability, created_at`

// CreateVendor registers a vendor. An empty ID gets a generated one. A taken
// email returns ErrDuplicate.
func CreateVendor(ctx context.Context, db *sql.DB, v model.Vendor) (*model.Vendor, error) {
	id, err := insertVendor(ctx, db, v)
	if err != nil {
		return nil, err
	}
	return GetVendor(ctx, db, id)
}

// CreateVendorAccount registers a vendor together with its login. Either
// both rows are written or neither is.
func CreateVendorAccount(ctx context.Context, db *sql.DB, v model.Vendor, u model.User) (*model.Vendor, *model.User, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	vendorID, err := insertVendor(ctx, tx, v)
	if err != nil {
		return nil, nil, err
	}
	u.VendorID = vendorID
	userID, err := insertUser(ctx, tx, u)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("committing vendor account: %w", err)
	}

	vendor, err := GetVendor(ctx, db, vendorID)
	if err != nil {
		return nil, nil, err
	}
	user, err := GetUser(ctx, db, userID)
	if err != nil {
		return nil, nil, err
	}
	return vendor, user, nil
}

func insertVendor(ctx context.Context, ex execer, v model.Vendor) (string, error) {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	availability, err := encodeAvailability(v.Availability)
	if err != nil {
		return "", err
	}

	_, err = ex.ExecContext(ctx,
		`INSERT INTO vendors (id, company_name, contact_person, email, cpcb_registration_no, availability)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		v.ID, v.CompanyName, v.ContactPerson, v.Email, v.CPCBRegistrationNo, availability,
	)
	if isUniqueViolation(err) {
		return "", fmt.Errorf("vendor %s: %w", v.Email, ErrDuplicate)
	}
	if err != nil {
		return "", fmt.Errorf("creating vendor: %w", err)
	}
	return v.ID, nil
}

// GetVendor returns a vendor by ID.
func GetVendor(ctx context.Context, db *sql.DB, id string) (*model.Vendor, error) {
	v, err := scanVendor(db.QueryRowContext(ctx,
		`SELECT `+vendorColumns+` FROM vendors WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting vendor: %w", err)
	}
	return v, nil
}

// GetVendorByEmail returns the vendor registered with an email address.
func GetVendorByEmail(ctx context.Context, db *sql.DB, email string) (*model.Vendor, error) {
	v, err := scanVendor(db.QueryRowContext(ctx,
		`SELECT `+vendorColumns+` FROM vendors WHERE email = ?`, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting vendor by email: %w", err)
	}
	return v, nil
}

// GetVendorByCompany returns the earliest vendor registered under a company
// name, matched case-insensitively.
func GetVendorByCompany(ctx context.Context, db *sql.DB, company string) (*model.Vendor, error) {
	v, err := scanVendor(db.QueryRowContext(ctx,
		`SELECT `+vendorColumns+` FROM vendors WHERE company_name = ? COLLATE NOCASE
		 ORDER BY created_at, rowid LIMIT 1`, company))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting vendor by company: %w", err)
	}
	return v, nil
}

// ListVendors returns all vendors ordered by company name.
func ListVendors(ctx context.Context, db *sql.DB) ([]model.Vendor, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+vendorColumns+` FROM vendors ORDER BY company_name`)
	if err != nil {
		return nil, fmt.Errorf("listing vendors: %w", err)
	}
	defer rows.Close()

	var vendors []model.Vendor
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning vendor: %w", err)
		}
		vendors = append(vendors, *v)
	}
	return vendors, rows.Err()
}

// SetVendorAvailability replaces a vendor's availability slots.
func SetVendorAvailability(ctx context.Context, db *sql.DB, id string, slots []string) error {
	availability, err := encodeAvailability(slots)
	if err != nil {
		return err
	}
	result, err := db.ExecContext(ctx,
		`UPDATE vendors SET availability = ? WHERE id = ?`, availability, id,
	)
	if err != nil {
		return fmt.Errorf("updating vendor availability: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanVendor(row rowScanner) (*model.Vendor, error) {
	var v model.Vendor
	var availability string
	if err := row.Scan(&v.ID, &v.CompanyName, &v.ContactPerson, &v.Email,
		&v.CPCBRegistrationNo, &availability, &v.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(availability), &v.Availability); err != nil {
		return nil, fmt.Errorf("decoding availability: %w", err)
	}
	if v.Availability == nil {
		v.Availability = []string{}
	}
	return &v, nil
}

func encodeAvailability(slots []string) (string, error) {
	if slots == nil {
		slots = []string{}
	}
	b, err := json.Marshal(slots)
	if err != nil {
		return "", fmt.Errorf("encoding availability: %w", err)
	}
	return string(b), nil
}
