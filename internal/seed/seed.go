// Package seed loads departments, vendors, users and campaigns from a YAML
// file. Applying the same file twice changes nothing.
package seed

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/erazemk/odpad/internal/model"
	"github.com/erazemk/odpad/internal/store"
)

// File is the seed document.
type File struct {
	Departments []Department `yaml:"departments"`
	Vendors     []Vendor     `yaml:"vendors"`
	Users       []User       `yaml:"users"`
	Campaigns   []Campaign   `yaml:"campaigns"`
}

type Department struct {
	Name     string `yaml:"name"`
	Location string `yaml:"location"`
}

// Vendor is a recycler. With a password it also gets a vendor login under
// the same email.
type Vendor struct {
	CompanyName        string   `yaml:"company_name"`
	ContactPerson      string   `yaml:"contact_person"`
	Email              string   `yaml:"email"`
	CPCBRegistrationNo string   `yaml:"cpcb_registration_no"`
	Availability       []string `yaml:"availability"`
	Password           string   `yaml:"password"`
}

// User refers to its department by name.
type User struct {
	Email      string `yaml:"email"`
	Name       string `yaml:"name"`
	Password   string `yaml:"password"`
	Role       string `yaml:"role"`
	Department string `yaml:"department"`
}

type Campaign struct {
	Title       string `yaml:"title"`
	Date        string `yaml:"date"`
	Description string `yaml:"description"`
}

// Result counts the records created by Apply.
type Result struct {
	Departments int
	Vendors     int
	Users       int
	Campaigns   int
}

var hashCost = bcrypt.DefaultCost

// Load decodes a seed document. Unknown keys are rejected.
func Load(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parsing seed: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// LoadFile reads and decodes the seed file at path.
func LoadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening seed: %w", err)
	}
	defer fh.Close()
	return Load(fh)
}

func (f *File) validate() error {
	departments := map[string]bool{}
	for i, d := range f.Departments {
		if strings.TrimSpace(d.Name) == "" {
			return fmt.Errorf("department %d: name is required", i+1)
		}
		departments[d.Name] = true
	}
	for i, v := range f.Vendors {
		if strings.TrimSpace(v.CompanyName) == "" || !strings.Contains(v.Email, "@") {
			return fmt.Errorf("vendor %d: company_name and a valid email are required", i+1)
		}
		if v.Password != "" {
			if err := model.ValidatePassword(v.Password); err != nil {
				return fmt.Errorf("vendor %s: %w", v.Email, err)
			}
		}
	}
	for i, u := range f.Users {
		if !strings.Contains(u.Email, "@") {
			return fmt.Errorf("user %d: valid email is required", i+1)
		}
		if !model.ValidRole(u.Role) {
			return fmt.Errorf("user %s: unknown role %q", u.Email, u.Role)
		}
		if err := model.ValidatePassword(u.Password); err != nil {
			return fmt.Errorf("user %s: %w", u.Email, err)
		}
		if u.Role == model.RoleVendor {
			return fmt.Errorf("user %s: vendor logins belong under vendors", u.Email)
		}
	}
	for i, c := range f.Campaigns {
		if strings.TrimSpace(c.Title) == "" {
			return fmt.Errorf("campaign %d: title is required", i+1)
		}
		if _, err := time.Parse(time.DateOnly, c.Date); err != nil {
			return fmt.Errorf("campaign %q: date must be YYYY-MM-DD", c.Title)
		}
	}
	return nil
}

// Apply creates every record that does not exist yet. Departments match by
// name, vendors and users by email, campaigns by title and date.
func Apply(ctx context.Context, db *sql.DB, f *File) (*Result, error) {
	res := &Result{}

	existing, err := store.ListDepartments(ctx, db)
	if err != nil {
		return nil, err
	}
	deptIDs := make(map[string]int64, len(existing))
	for _, d := range existing {
		deptIDs[d.Name] = d.ID
	}
	for _, d := range f.Departments {
		if _, ok := deptIDs[d.Name]; ok {
			continue
		}
		created, err := store.CreateDepartment(ctx, db, d.Name, d.Location)
		if err != nil {
			return nil, fmt.Errorf("seeding department %s: %w", d.Name, err)
		}
		deptIDs[d.Name] = created.ID
		res.Departments++
	}

	for _, v := range f.Vendors {
		email := normalize(v.Email)
		vendor, err := store.GetVendorByEmail(ctx, db, email)
		if err != nil {
			return nil, err
		}
		if vendor == nil {
			vendor, err = store.CreateVendor(ctx, db, model.Vendor{
				CompanyName:        v.CompanyName,
				ContactPerson:      v.ContactPerson,
				Email:              email,
				CPCBRegistrationNo: v.CPCBRegistrationNo,
				Availability:       v.Availability,
			})
			if err != nil {
				return nil, fmt.Errorf("seeding vendor %s: %w", email, err)
			}
			res.Vendors++
		}
		if v.Password == "" {
			continue
		}
		created, err := ensureUser(ctx, db, model.User{
			Email: email, Name: v.ContactPerson, Role: model.RoleVendor, VendorID: vendor.ID,
		}, v.Password)
		if err != nil {
			return nil, err
		}
		if created {
			res.Users++
		}
	}

	for _, u := range f.Users {
		var deptID int64
		if u.Department != "" {
			id, ok := deptIDs[u.Department]
			if !ok {
				return nil, fmt.Errorf("seeding user %s: unknown department %q", u.Email, u.Department)
			}
			deptID = id
		}
		created, err := ensureUser(ctx, db, model.User{
			Email: normalize(u.Email), Name: u.Name, Role: u.Role, DepartmentID: deptID,
		}, u.Password)
		if err != nil {
			return nil, err
		}
		if created {
			res.Users++
		}
	}

	campaigns, err := store.ListCampaigns(ctx, db)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(campaigns))
	for _, c := range campaigns {
		seen[campaignKey(c.Title, c.Date)] = true
	}
	for _, c := range f.Campaigns {
		date, _ := time.Parse(time.DateOnly, c.Date)
		if seen[campaignKey(c.Title, date)] {
			continue
		}
		if _, err := store.CreateCampaign(ctx, db, c.Title, date, c.Description); err != nil {
			return nil, fmt.Errorf("seeding campaign %s: %w", c.Title, err)
		}
		seen[campaignKey(c.Title, date)] = true
		res.Campaigns++
	}

	slog.Info("seed applied", "departments", res.Departments, "vendors", res.Vendors,
		"users", res.Users, "campaigns", res.Campaigns)
	return res, nil
}

// ensureUser creates u unless an active account with its email exists.
func ensureUser(ctx context.Context, db *sql.DB, u model.User, password string) (bool, error) {
	existing, err := store.GetUserByEmail(ctx, db, u.Email)
	if err != nil {
		return false, err
	}
	if existing != nil && existing.DeletedAt == nil {
		return false, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return false, fmt.Errorf("hashing password for %s: %w", u.Email, err)
	}
	u.PasswordHash = string(hash)
	if u.Name == "" {
		u.Name = u.Email
	}
	if _, err := store.CreateUser(ctx, db, u); err != nil {
		return false, fmt.Errorf("seeding user %s: %w", u.Email, err)
	}
	return true, nil
}

func campaignKey(title string, date time.Time) string {
	return title + "|" + date.UTC().Format(time.DateOnly)
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
