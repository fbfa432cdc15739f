package adapter

import (
	"fmt"
	"strconv"
	"strings"
)

// ChamberCodeSet is a closed, per-backend enumeration of chamber codes.
// Validation happens here so every adapter rejects an unknown code the same
// way, before any network call.
type ChamberCodeSet struct {
	codes map[string]string // code -> backend-native chamber identifier
}

// NewChamberCodeSet builds a set from a code->native map plus the always-
// present wildcard "ALL", which every adapter treats as "no chamber filter".
func NewChamberCodeSet(codeToNative map[string]string) ChamberCodeSet {
	codes := make(map[string]string, len(codeToNative)+1)
	for k, v := range codeToNative {
		codes[k] = v
	}
	codes["ALL"] = ""
	return ChamberCodeSet{codes: codes}
}

// Resolve translates a closed-set chamber code into the backend's native
// identifier. An empty code is treated as "ALL".
func (s ChamberCodeSet) Resolve(code string) (string, error) {
	if code == "" {
		code = "ALL"
	}
	native, ok := s.codes[code]
	if !ok {
		return "", fmt.Errorf("unknown chamber code %q", code)
	}
	return native, nil
}

// YargitayChambers enumerates the supreme civil/criminal court's chamber
// codes: H1-H23 (Hukuk / civil), C1-C23 (Ceza / criminal), plus the general
// assemblies.
func YargitayChambers() ChamberCodeSet {
	m := make(map[string]string, 48)
	for i := 1; i <= 23; i++ {
		m[fmt.Sprintf("H%d", i)] = fmt.Sprintf("%d. Hukuk Dairesi", i)
	}
	for i := 1; i <= 23; i++ {
		m[fmt.Sprintf("C%d", i)] = fmt.Sprintf("%d. Ceza Dairesi", i)
	}
	m["HGK"] = "Hukuk Genel Kurulu"
	m["CGK"] = "Ceza Genel Kurulu"
	return NewChamberCodeSet(m)
}

// DanistayChambers enumerates the council of state's chamber codes: D1-D17
// (Daire) plus its general assemblies.
func DanistayChambers() ChamberCodeSet {
	m := make(map[string]string, 19)
	for i := 1; i <= 17; i++ {
		m[fmt.Sprintf("D%d", i)] = fmt.Sprintf("%d. Daire", i)
	}
	m["IDDK"] = "İdari Dava Daireleri Kurulu"
	m["VDDK"] = "Vergi Dava Daireleri Kurulu"
	return NewChamberCodeSet(m)
}

// SayistayChambers enumerates the court of accounts' audit chambers, 1
// through 8, used as the chamber-filter field on the temyiz_kurulu and daire
// search forms (ILAMDAIRESI / YARGILAMADAIRESI); ALL clears the filter.
func SayistayChambers() ChamberCodeSet {
	m := make(map[string]string, 8)
	for i := 1; i <= 8; i++ {
		code := strconv.Itoa(i)
		m[code] = fmt.Sprintf("%d. Daire", i)
	}
	return NewChamberCodeSet(m)
}

// EncodeISODate validates and passes through an ISO YYYY-MM-DD date. Several
// backends require the date encoded into a different wire format
// (DD.MM.YYYY for WebForms endpoints); EncodeTurkishDate handles that case.
func EncodeISODate(iso string) (string, error) {
	if iso == "" {
		return "", nil
	}
	parts := strings.SplitN(iso, "-", 3)
	if len(parts) != 3 {
		return "", fmt.Errorf("date %q is not in YYYY-MM-DD form", iso)
	}
	if _, err := strconv.Atoi(parts[0]); err != nil || len(parts[0]) != 4 {
		return "", fmt.Errorf("date %q has an invalid year component", iso)
	}
	return iso, nil
}

// EncodeTurkishDate converts an ISO YYYY-MM-DD date into the DD.MM.YYYY
// format the WebForms (Sayıştay) and legacy procurement endpoints expect.
func EncodeTurkishDate(iso string) (string, error) {
	if iso == "" {
		return "", nil
	}
	if _, err := EncodeISODate(iso); err != nil {
		return "", err
	}
	parts := strings.SplitN(iso, "-", 3)
	return fmt.Sprintf("%s.%s.%s", parts[2], parts[1], parts[0]), nil
}
