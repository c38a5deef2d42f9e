package models

import (
	"fmt"
	"strings"
)

// Category is the closed set of contact labels.
type Category string

const (
	CategoryFamily   Category = "Family"
	CategoryPersonal Category = "Personal"
	CategoryWork     Category = "Work"
	CategoryOther    Category = "Other"
)

// Categories lists the allowed labels in display order.
var Categories = []Category{CategoryFamily, CategoryPersonal, CategoryWork, CategoryOther}

// Contact is a named directory entry owning one or more phone numbers.
type Contact struct {
	ID           int64    `json:"id" yaml:"id"`
	Name         string   `json:"name" yaml:"name"`
	Category     Category `json:"category" yaml:"category"`
	PhoneNumbers []string `json:"phone_numbers" yaml:"phone_numbers"`
}

// Clone returns a copy that shares no backing array with c.
func (c Contact) Clone() Contact {
	out := c
	out.PhoneNumbers = append([]string(nil), c.PhoneNumbers...)
	return out
}

// HasPhoneNumber reports whether number is one of the contact's numbers.
func (c Contact) HasPhoneNumber(number string) bool {
	for _, n := range c.PhoneNumbers {
		if n == number {
			return true
		}
	}
	return false
}

// String renders the one-line listing form.
func (c Contact) String() string {
	return fmt.Sprintf("ID: %d | Name: %s | Type: %s | Numbers: %s",
		c.ID, c.Name, c.Category, strings.Join(c.PhoneNumbers, ", "))
}

// Tuples renders one "(name, type, number)" line per phone number.
func (c Contact) Tuples() []string {
	out := make([]string, 0, len(c.PhoneNumbers))
	for _, n := range c.PhoneNumbers {
		out = append(out, fmt.Sprintf("(%s, %s, %s)", c.Name, c.Category, n))
	}
	return out
}
