package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Address is a value object representing a delivery address
// It is immutable - all operations return new Address instances
// Fields follow the Vietnamese administrative hierarchy:
// ward (phường/xã), district (quận/huyện), province (tỉnh/thành phố)
type Address struct {
	recipientName string
	phone         string
	line1         string
	line2         string
	ward          string
	district      string
	province      string
	country       string
	postalCode    string
}

// AddressOption is a functional option for configuring Address
type AddressOption func(*Address)

// WithLine2 sets the secondary address line
func WithLine2(line2 string) AddressOption {
	return func(a *Address) {
		a.line2 = strings.TrimSpace(line2)
	}
}

// WithPostalCode sets the postal code for the address
func WithPostalCode(postalCode string) AddressOption {
	return func(a *Address) {
		a.postalCode = strings.TrimSpace(postalCode)
	}
}

// WithCountry sets the country for the address
func WithCountry(country string) AddressOption {
	return func(a *Address) {
		a.country = strings.TrimSpace(country)
	}
}

// NewAddress creates a new Address with the required fields
// Recipient name, phone, first address line, district, and province are
// required; ward, second line, postal code, and country are optional
func NewAddress(recipientName, phone, line1, ward, district, province string, opts ...AddressOption) (Address, error) {
	recipientName = strings.TrimSpace(recipientName)
	phone = strings.TrimSpace(phone)
	line1 = strings.TrimSpace(line1)
	ward = strings.TrimSpace(ward)
	district = strings.TrimSpace(district)
	province = strings.TrimSpace(province)

	if recipientName == "" {
		return Address{}, fmt.Errorf("recipient name cannot be empty")
	}
	if len(recipientName) > 200 {
		return Address{}, fmt.Errorf("recipient name cannot exceed 200 characters")
	}
	if phone == "" {
		return Address{}, fmt.Errorf("phone cannot be empty")
	}
	if len(phone) > 20 {
		return Address{}, fmt.Errorf("phone cannot exceed 20 characters")
	}
	if line1 == "" {
		return Address{}, fmt.Errorf("address line cannot be empty")
	}
	if len(line1) > 500 {
		return Address{}, fmt.Errorf("address line cannot exceed 500 characters")
	}
	if district == "" {
		return Address{}, fmt.Errorf("district cannot be empty")
	}
	if len(district) > 100 {
		return Address{}, fmt.Errorf("district cannot exceed 100 characters")
	}
	if province == "" {
		return Address{}, fmt.Errorf("province cannot be empty")
	}
	if len(province) > 100 {
		return Address{}, fmt.Errorf("province cannot exceed 100 characters")
	}
	if len(ward) > 100 {
		return Address{}, fmt.Errorf("ward cannot exceed 100 characters")
	}

	addr := Address{
		recipientName: recipientName,
		phone:         phone,
		line1:         line1,
		ward:          ward,
		district:      district,
		province:      province,
		country:       "VN",
	}

	for _, opt := range opts {
		opt(&addr)
	}

	if len(addr.line2) > 500 {
		return Address{}, fmt.Errorf("address line cannot exceed 500 characters")
	}
	if len(addr.postalCode) > 20 {
		return Address{}, fmt.Errorf("postal code cannot exceed 20 characters")
	}
	if len(addr.country) > 100 {
		return Address{}, fmt.Errorf("country cannot exceed 100 characters")
	}

	return addr, nil
}

// MustNewAddress creates a new Address, panics on error
func MustNewAddress(recipientName, phone, line1, ward, district, province string, opts ...AddressOption) Address {
	addr, err := NewAddress(recipientName, phone, line1, ward, district, province, opts...)
	if err != nil {
		panic(err)
	}
	return addr
}

// EmptyAddress returns an empty address (for optional address fields)
func EmptyAddress() Address {
	return Address{}
}

// RecipientName returns the recipient name
func (a Address) RecipientName() string {
	return a.recipientName
}

// Phone returns the recipient phone number
func (a Address) Phone() string {
	return a.phone
}

// Line1 returns the first address line
func (a Address) Line1() string {
	return a.line1
}

// Line2 returns the second address line
func (a Address) Line2() string {
	return a.line2
}

// Ward returns the ward
func (a Address) Ward() string {
	return a.ward
}

// District returns the district
func (a Address) District() string {
	return a.district
}

// Province returns the province
func (a Address) Province() string {
	return a.province
}

// Country returns the country code
func (a Address) Country() string {
	return a.country
}

// PostalCode returns the postal code
func (a Address) PostalCode() string {
	return a.postalCode
}

// IsEmpty returns true if the address has no content
func (a Address) IsEmpty() bool {
	return a.recipientName == "" && a.line1 == "" && a.district == "" && a.province == ""
}

// FullAddress returns the complete formatted address string
func (a Address) FullAddress() string {
	if a.IsEmpty() {
		return ""
	}

	parts := make([]string, 0, 7)
	if a.line1 != "" {
		parts = append(parts, a.line1)
	}
	if a.line2 != "" {
		parts = append(parts, a.line2)
	}
	if a.ward != "" {
		parts = append(parts, a.ward)
	}
	if a.district != "" {
		parts = append(parts, a.district)
	}
	if a.province != "" {
		parts = append(parts, a.province)
	}
	if a.country != "" {
		parts = append(parts, a.country)
	}
	if a.postalCode != "" {
		parts = append(parts, a.postalCode)
	}
	return strings.Join(parts, ", ")
}

// String returns a string representation of the address
func (a Address) String() string {
	return a.FullAddress()
}

// Equals returns true if both addresses are equal
func (a Address) Equals(other Address) bool {
	return a == other
}

// addressJSON is used for JSON marshaling/unmarshaling
type addressJSON struct {
	RecipientName string `json:"recipientName"`
	Phone         string `json:"phone"`
	Line1         string `json:"line1"`
	Line2         string `json:"line2,omitempty"`
	Ward          string `json:"ward,omitempty"`
	District      string `json:"district"`
	Province      string `json:"province"`
	Country       string `json:"country,omitempty"`
	PostalCode    string `json:"postalCode,omitempty"`
}

// MarshalJSON implements json.Marshaler
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(addressJSON{
		RecipientName: a.recipientName,
		Phone:         a.phone,
		Line1:         a.line1,
		Line2:         a.line2,
		Ward:          a.ward,
		District:      a.district,
		Province:      a.province,
		Country:       a.country,
		PostalCode:    a.postalCode,
	})
}

// UnmarshalJSON implements json.Unmarshaler for request binding and
// database JSON column retrieval. Validation is applied through the
// NewAddress factory so stored and bound addresses obey the same rules.
func (a *Address) UnmarshalJSON(data []byte) error {
	var v addressJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	// Allow empty addresses from JSON
	if v.RecipientName == "" && v.Line1 == "" && v.District == "" && v.Province == "" {
		*a = EmptyAddress()
		return nil
	}

	opts := []AddressOption{WithLine2(v.Line2), WithPostalCode(v.PostalCode)}
	if v.Country != "" {
		opts = append(opts, WithCountry(v.Country))
	}
	addr, err := NewAddress(v.RecipientName, v.Phone, v.Line1, v.Ward, v.District, v.Province, opts...)
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

// Value implements driver.Valuer for database storage
// Stores as JSON string
func (a Address) Value() (driver.Value, error) {
	if a.IsEmpty() {
		return nil, nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner for database retrieval
func (a *Address) Scan(value any) error {
	if value == nil {
		*a = EmptyAddress()
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into Address", value)
	}

	if len(data) == 0 || string(data) == "null" {
		*a = EmptyAddress()
		return nil
	}

	return json.Unmarshal(data, a)
}
