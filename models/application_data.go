package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ApplicationData — анкета участника. Старые заявки хранят фото под разными
// ключами, поэтому декодирование терпимо к нескольким вариантам.
type ApplicationData struct {
	FirstName     string   `json:"first_name,omitempty"`
	LastName      string   `json:"last_name,omitempty"`
	Age           *int     `json:"age,omitempty"`
	BirthYear     *int     `json:"birth_year,omitempty"`
	City          string   `json:"city,omitempty"`
	State         string   `json:"state,omitempty"`
	Country       string   `json:"country,omitempty"`
	Gender        string   `json:"gender,omitempty"`
	HeightCM      *float64 `json:"height_cm,omitempty"`
	WeightKG      *float64 `json:"weight_kg,omitempty"`
	MaritalStatus string   `json:"marital_status,omitempty"`
	HasChildren   *bool    `json:"has_children,omitempty"`
	Phone         string   `json:"phone,omitempty"`
	Instagram     string   `json:"instagram,omitempty"`
	Photo1URL     string   `json:"photo1_url,omitempty"`
	Photo2URL     string   `json:"photo2_url,omitempty"`

	// Extra keeps keys this struct does not know about so they survive a write.
	Extra map[string]json.RawMessage `json:"-"`
}

var photo1Keys = []string{"photo1_url", "photo_1_url", "photo1Url", "photo_url"}
var photo2Keys = []string{"photo2_url", "photo_2_url", "photo2Url"}

// Анкеты приходят из разных версий формы: числа бывают строками, "да"/"нет" бывают 0/1.
// Поле, которое не удалось разобрать, остаётся в Extra как есть.
var applicationFields = map[string]func(a *ApplicationData, v json.RawMessage) bool{
	"first_name":     func(a *ApplicationData, v json.RawMessage) bool { return decodeString(v, &a.FirstName) },
	"last_name":      func(a *ApplicationData, v json.RawMessage) bool { return decodeString(v, &a.LastName) },
	"age":            func(a *ApplicationData, v json.RawMessage) bool { return decodeInt(v, &a.Age) },
	"birth_year":     func(a *ApplicationData, v json.RawMessage) bool { return decodeInt(v, &a.BirthYear) },
	"city":           func(a *ApplicationData, v json.RawMessage) bool { return decodeString(v, &a.City) },
	"state":          func(a *ApplicationData, v json.RawMessage) bool { return decodeString(v, &a.State) },
	"country":        func(a *ApplicationData, v json.RawMessage) bool { return decodeString(v, &a.Country) },
	"gender":         func(a *ApplicationData, v json.RawMessage) bool { return decodeString(v, &a.Gender) },
	"height_cm":      func(a *ApplicationData, v json.RawMessage) bool { return decodeFloat(v, &a.HeightCM) },
	"weight_kg":      func(a *ApplicationData, v json.RawMessage) bool { return decodeFloat(v, &a.WeightKG) },
	"marital_status": func(a *ApplicationData, v json.RawMessage) bool { return decodeString(v, &a.MaritalStatus) },
	"has_children":   func(a *ApplicationData, v json.RawMessage) bool { return decodeBool(v, &a.HasChildren) },
	"phone":          func(a *ApplicationData, v json.RawMessage) bool { return decodeString(v, &a.Phone) },
	"instagram":      func(a *ApplicationData, v json.RawMessage) bool { return decodeString(v, &a.Instagram) },
}

func isPhotoKey(k string) bool {
	for _, keys := range [][]string{photo1Keys, photo2Keys} {
		for _, pk := range keys {
			if k == pk {
				return true
			}
		}
	}
	return false
}

func (a *ApplicationData) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var out ApplicationData
	keep := func(k string, v json.RawMessage) {
		if out.Extra == nil {
			out.Extra = make(map[string]json.RawMessage)
		}
		out.Extra[k] = v
	}

	for k, v := range raw {
		if isPhotoKey(k) {
			continue
		}
		decode, known := applicationFields[k]
		if !known || !decode(&out, v) {
			keep(k, v)
		}
	}

	out.Photo1URL = firstStringKey(raw, photo1Keys)
	out.Photo2URL = firstStringKey(raw, photo2Keys)

	*a = out
	return nil
}

func isNull(v json.RawMessage) bool {
	return len(bytes.TrimSpace(v)) == 0 || bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

// decodeString принимает строку или число (телефон часто приходит числом).
func decodeString(v json.RawMessage, dst *string) bool {
	if isNull(v) {
		return true
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		*dst = s
		return true
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		*dst = n.String()
		return true
	}
	return false
}

// flexNumber returns the number held by v, whether it is a JSON number or a numeric string.
func flexNumber(v json.RawMessage) (string, bool) {
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		return n.String(), true
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		s = strings.TrimSpace(s)
		return s, s != ""
	}
	return "", false
}

func decodeInt(v json.RawMessage, dst **int) bool {
	if isNull(v) {
		return true
	}
	s, ok := flexNumber(v)
	if !ok {
		return false
	}
	if n, err := strconv.Atoi(s); err == nil {
		*dst = &n
		return true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return false
	}
	n := int(f)
	*dst = &n
	return true
}

func decodeFloat(v json.RawMessage, dst **float64) bool {
	if isNull(v) {
		return true
	}
	s, ok := flexNumber(v)
	if !ok {
		return false
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return false
	}
	*dst = &f
	return true
}

func decodeBool(v json.RawMessage, dst **bool) bool {
	if isNull(v) {
		return true
	}
	var b bool
	if err := json.Unmarshal(v, &b); err == nil {
		*dst = &b
		return true
	}
	s, ok := flexNumber(v)
	if !ok {
		return false
	}
	switch strings.ToLower(s) {
	case "1", "true", "yes", "y":
		b = true
	case "0", "false", "no", "n":
		b = false
	default:
		return false
	}
	*dst = &b
	return true
}

func (a ApplicationData) MarshalJSON() ([]byte, error) {
	type plain ApplicationData
	known, err := json.Marshal(plain(a))
	if err != nil {
		return nil, err
	}
	if len(a.Extra) == 0 {
		return known, nil
	}

	merged := make(map[string]json.RawMessage, len(a.Extra)+16)
	for k, v := range a.Extra {
		merged[k] = v
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		merged[k] = v
	}
	return json.Marshal(merged)
}

func (a ApplicationData) Value() (driver.Value, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (a *ApplicationData) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = ApplicationData{}
		return nil
	case []byte:
		if len(v) == 0 {
			*a = ApplicationData{}
			return nil
		}
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return fmt.Errorf("application_data: unsupported scan type %T", src)
	}
}

func (a ApplicationData) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(a.FirstName) + " " + strings.TrimSpace(a.LastName))
}

// Photos returns non-empty photo references in slot order.
func (a ApplicationData) Photos() []string {
	photos := make([]string, 0, 2)
	if a.Photo1URL != "" {
		photos = append(photos, a.Photo1URL)
	}
	if a.Photo2URL != "" {
		photos = append(photos, a.Photo2URL)
	}
	return photos
}

// PhotoSlot returns the reference stored in slot 1 or 2.
func (a ApplicationData) PhotoSlot(slot int) string {
	switch slot {
	case 1:
		return a.Photo1URL
	case 2:
		return a.Photo2URL
	}
	return ""
}

func (a *ApplicationData) SetPhotoSlot(slot int, ref string) {
	switch slot {
	case 1:
		a.Photo1URL = ref
	case 2:
		a.Photo2URL = ref
	}
}

func firstStringKey(raw map[string]json.RawMessage, keys []string) string {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil && s != "" {
			return s
		}
	}
	return ""
}
