package models

import "testing"

func TestContact_Clone_Isolated(t *testing.T) {
	c := Contact{ID: 1, Name: "Multi", Category: CategoryPersonal, PhoneNumbers: []string{"111", "222"}}
	cp := c.Clone()
	cp.PhoneNumbers[0] = "999"
	cp.PhoneNumbers = append(cp.PhoneNumbers, "333")

	if c.PhoneNumbers[0] != "111" || len(c.PhoneNumbers) != 2 {
		t.Fatalf("clone leaked into original: %+v", c)
	}
}

func TestContact_String(t *testing.T) {
	c := Contact{ID: 7, Name: "Alice Smith", Category: CategoryWork, PhoneNumbers: []string{"1111111", "2222222"}}
	want := "ID: 7 | Name: Alice Smith | Type: Work | Numbers: 1111111, 2222222"
	if got := c.String(); got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}

func TestContact_Tuples(t *testing.T) {
	c := Contact{Name: "Bob", Category: CategoryFamily, PhoneNumbers: []string{"1", "2"}}
	got := c.Tuples()
	if len(got) != 2 || got[0] != "(Bob, Family, 1)" || got[1] != "(Bob, Family, 2)" {
		t.Fatalf("unexpected tuples: %v", got)
	}
}

func TestContact_HasPhoneNumber(t *testing.T) {
	c := Contact{PhoneNumbers: []string{"111"}}
	if !c.HasPhoneNumber("111") || c.HasPhoneNumber("11") {
		t.Fatalf("HasPhoneNumber must be exact")
	}
}
