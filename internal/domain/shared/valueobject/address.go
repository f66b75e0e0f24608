package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Address is a value object representing a postal address snapshot.
// Orders copy billing and shipping addresses at creation time; the
// snapshot never changes when the customer later edits their address book.
type Address struct {
	fullName   string
	line1      string
	line2      string
	city       string
	state      string
	postalCode string
	country    string
	phone      string
}

// AddressOption is a functional option for configuring Address
type AddressOption func(*Address)

// WithLine2 sets the second address line
func WithLine2(line2 string) AddressOption {
	return func(a *Address) {
		a.line2 = strings.TrimSpace(line2)
	}
}

// WithPhone sets the contact phone for the address
func WithPhone(phone string) AddressOption {
	return func(a *Address) {
		a.phone = strings.TrimSpace(phone)
	}
}

// WithCountry sets the country for the address
func WithCountry(country string) AddressOption {
	return func(a *Address) {
		a.country = strings.TrimSpace(country)
	}
}

// NewAddress creates a new Address with the required fields.
// Full name, line1, city, state and postal code are required.
func NewAddress(fullName, line1, city, state, postalCode string, opts ...AddressOption) (Address, error) {
	fullName = strings.TrimSpace(fullName)
	line1 = strings.TrimSpace(line1)
	city = strings.TrimSpace(city)
	state = strings.TrimSpace(state)
	postalCode = strings.TrimSpace(postalCode)

	if fullName == "" {
		return Address{}, fmt.Errorf("recipient name is required")
	}
	if len(fullName) > 100 {
		return Address{}, fmt.Errorf("recipient name cannot exceed 100 characters")
	}
	if line1 == "" {
		return Address{}, fmt.Errorf("address line is required")
	}
	if len(line1) > 255 {
		return Address{}, fmt.Errorf("address line cannot exceed 255 characters")
	}
	if city == "" {
		return Address{}, fmt.Errorf("city is required")
	}
	if state == "" {
		return Address{}, fmt.Errorf("state is required")
	}
	if postalCode == "" {
		return Address{}, fmt.Errorf("postal code is required")
	}
	if len(postalCode) > 20 {
		return Address{}, fmt.Errorf("postal code cannot exceed 20 characters")
	}

	addr := Address{
		fullName:   fullName,
		line1:      line1,
		city:       city,
		state:      state,
		postalCode: postalCode,
		country:    "India",
	}

	for _, opt := range opts {
		opt(&addr)
	}

	if addr.country != "" && len(addr.country) > 100 {
		return Address{}, fmt.Errorf("country cannot exceed 100 characters")
	}

	return addr, nil
}

// MustNewAddress creates a new Address, panics on error
func MustNewAddress(fullName, line1, city, state, postalCode string, opts ...AddressOption) Address {
	addr, err := NewAddress(fullName, line1, city, state, postalCode, opts...)
	if err != nil {
		panic(err)
	}
	return addr
}

// EmptyAddress returns an empty address (for optional address fields)
func EmptyAddress() Address {
	return Address{}
}

// FullName returns the recipient name
func (a Address) FullName() string {
	return a.fullName
}

// Line1 returns the first address line
func (a Address) Line1() string {
	return a.line1
}

// Line2 returns the second address line
func (a Address) Line2() string {
	return a.line2
}

// City returns the city
func (a Address) City() string {
	return a.city
}

// State returns the state
func (a Address) State() string {
	return a.state
}

// PostalCode returns the postal code
func (a Address) PostalCode() string {
	return a.postalCode
}

// Country returns the country
func (a Address) Country() string {
	return a.country
}

// Phone returns the contact phone
func (a Address) Phone() string {
	return a.phone
}

// IsEmpty returns true if the address has no content
func (a Address) IsEmpty() bool {
	return a.fullName == "" && a.line1 == "" && a.city == ""
}

// FormatOneLine returns the address formatted on a single line
func (a Address) FormatOneLine() string {
	if a.IsEmpty() {
		return ""
	}

	parts := make([]string, 0, 7)
	parts = append(parts, a.fullName, a.line1)
	if a.line2 != "" {
		parts = append(parts, a.line2)
	}
	parts = append(parts, a.city, a.state, a.postalCode)
	if a.country != "" {
		parts = append(parts, a.country)
	}
	return strings.Join(parts, ", ")
}

// Equals returns true if both addresses have identical fields
func (a Address) Equals(other Address) bool {
	return a == other
}

// addressJSON is the JSON/database representation of Address
type addressJSON struct {
	FullName   string `json:"full_name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// MarshalJSON implements json.Marshaler
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(addressJSON{
		FullName:   a.fullName,
		Line1:      a.line1,
		Line2:      a.line2,
		City:       a.city,
		State:      a.state,
		PostalCode: a.postalCode,
		Country:    a.country,
		Phone:      a.phone,
	})
}

// UnmarshalJSON implements json.Unmarshaler
func (a *Address) UnmarshalJSON(data []byte) error {
	var raw addressJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	a.fullName = raw.FullName
	a.line1 = raw.Line1
	a.line2 = raw.Line2
	a.city = raw.City
	a.state = raw.State
	a.postalCode = raw.PostalCode
	a.country = raw.Country
	a.phone = raw.Phone
	return nil
}

// Value implements driver.Valuer: addresses are stored as JSON columns
func (a Address) Value() (driver.Value, error) {
	if a.IsEmpty() {
		return nil, nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner
func (a *Address) Scan(value interface{}) error {
	if value == nil {
		*a = Address{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return fmt.Errorf("cannot scan %T into Address", value)
	}
}
