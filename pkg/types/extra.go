package types

import (
	"encoding/json"
	"reflect"
	"strings"
	"sync"
)

// Extra holds the JSON members of a record object that its Go type does not
// declare. They are carried through decode and encode untouched.
type Extra map[string]any

var knownKeys sync.Map // reflect.Type -> map[string]bool

// jsonKeys returns the lowercased member names the json package maps onto t.
func jsonKeys(t reflect.Type) map[string]bool {
	if v, ok := knownKeys.Load(t); ok {
		return v.(map[string]bool)
	}
	keys := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		keys[strings.ToLower(name)] = true
	}
	knownKeys.Store(t, keys)
	return keys
}

// encodeWithExtra marshals v and appends the members of extra that v does
// not already write.
func encodeWithExtra(v any, extra Extra) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return b, err
	}
	var members map[string]json.RawMessage
	if err := json.Unmarshal(b, &members); err != nil {
		return nil, err
	}
	for k, val := range extra {
		if _, ok := members[k]; ok {
			continue
		}
		raw, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}
		members[k] = raw
	}
	return json.Marshal(members)
}

// decodeWithExtra unmarshals data onto v, a pointer to a struct that already
// holds the current values, and returns prev extended with the members v has
// no field for. The result is nil when there are none.
//
// Members are decoded one at a time so that a mismatched type leaves only
// that field as it was and the rest still merge, as json.Unmarshal does for
// plain structs. The first such error is returned.
func decodeWithExtra(data []byte, v any, prev Extra) (Extra, error) {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return prev, err
	}
	if members == nil {
		return prev, nil
	}
	known := jsonKeys(reflect.TypeOf(v).Elem())
	out := Extra(CloneMap(prev))
	var decodeErr error
	for k, raw := range members {
		if !known[strings.ToLower(k)] {
			var val any
			if err := json.Unmarshal(raw, &val); err != nil {
				return prev, err
			}
			if out == nil {
				out = Extra{}
			}
			out[k] = val
			continue
		}
		single, err := json.Marshal(map[string]json.RawMessage{k: raw})
		if err != nil {
			return prev, err
		}
		if err := json.Unmarshal(single, v); err != nil && decodeErr == nil {
			decodeErr = err
		}
	}
	if len(out) == 0 {
		return nil, decodeErr
	}
	return out, decodeErr
}

// The MarshalJSON and UnmarshalJSON pairs below carry Extra for each record
// object type.

func (r TripRecord) MarshalJSON() ([]byte, error) {
	type plain TripRecord
	return encodeWithExtra(plain(r), r.Extra)
}

func (r *TripRecord) UnmarshalJSON(data []byte) error {
	type plain TripRecord
	p := plain(*r)
	extra, err := decodeWithExtra(data, &p, r.Extra)
	*r = TripRecord(p)
	r.Extra = extra
	return err
}

func (c TripCore) MarshalJSON() ([]byte, error) {
	type plain TripCore
	return encodeWithExtra(plain(c), c.Extra)
}

func (c *TripCore) UnmarshalJSON(data []byte) error {
	type plain TripCore
	p := plain(*c)
	extra, err := decodeWithExtra(data, &p, c.Extra)
	*c = TripCore(p)
	c.Extra = extra
	return err
}

func (r Resources) MarshalJSON() ([]byte, error) {
	type plain Resources
	return encodeWithExtra(plain(r), r.Extra)
}

func (r *Resources) UnmarshalJSON(data []byte) error {
	type plain Resources
	p := plain(*r)
	extra, err := decodeWithExtra(data, &p, r.Extra)
	*r = Resources(p)
	r.Extra = extra
	return err
}

func (i Itinerary) MarshalJSON() ([]byte, error) {
	type plain Itinerary
	return encodeWithExtra(plain(i), i.Extra)
}

func (i *Itinerary) UnmarshalJSON(data []byte) error {
	type plain Itinerary
	p := plain(*i)
	extra, err := decodeWithExtra(data, &p, i.Extra)
	*i = Itinerary(p)
	i.Extra = extra
	return err
}

func (p Packing) MarshalJSON() ([]byte, error) {
	type plain Packing
	return encodeWithExtra(plain(p), p.Extra)
}

func (p *Packing) UnmarshalJSON(data []byte) error {
	type plain Packing
	pl := plain(*p)
	extra, err := decodeWithExtra(data, &pl, p.Extra)
	*p = Packing(pl)
	p.Extra = extra
	return err
}

func (u UIPrefs) MarshalJSON() ([]byte, error) {
	type plain UIPrefs
	return encodeWithExtra(plain(u), u.Extra)
}

func (u *UIPrefs) UnmarshalJSON(data []byte) error {
	type plain UIPrefs
	p := plain(*u)
	extra, err := decodeWithExtra(data, &p, u.Extra)
	*u = UIPrefs(p)
	u.Extra = extra
	return err
}

func (d Document) MarshalJSON() ([]byte, error) {
	type plain Document
	return encodeWithExtra(plain(d), d.Extra)
}

func (d *Document) UnmarshalJSON(data []byte) error {
	type plain Document
	p := plain(*d)
	extra, err := decodeWithExtra(data, &p, d.Extra)
	*d = Document(p)
	d.Extra = extra
	return err
}

func (t Task) MarshalJSON() ([]byte, error) {
	type plain Task
	return encodeWithExtra(plain(t), t.Extra)
}

func (t *Task) UnmarshalJSON(data []byte) error {
	type plain Task
	p := plain(*t)
	extra, err := decodeWithExtra(data, &p, t.Extra)
	*t = Task(p)
	t.Extra = extra
	return err
}

func (it ItineraryItem) MarshalJSON() ([]byte, error) {
	type plain ItineraryItem
	return encodeWithExtra(plain(it), it.Extra)
}

func (it *ItineraryItem) UnmarshalJSON(data []byte) error {
	type plain ItineraryItem
	p := plain(*it)
	extra, err := decodeWithExtra(data, &p, it.Extra)
	*it = ItineraryItem(p)
	it.Extra = extra
	return err
}

func (c PackingCategory) MarshalJSON() ([]byte, error) {
	type plain PackingCategory
	return encodeWithExtra(plain(c), c.Extra)
}

func (c *PackingCategory) UnmarshalJSON(data []byte) error {
	type plain PackingCategory
	p := plain(*c)
	extra, err := decodeWithExtra(data, &p, c.Extra)
	*c = PackingCategory(p)
	c.Extra = extra
	return err
}

func (pi PackingItem) MarshalJSON() ([]byte, error) {
	type plain PackingItem
	return encodeWithExtra(plain(pi), pi.Extra)
}

func (pi *PackingItem) UnmarshalJSON(data []byte) error {
	type plain PackingItem
	p := plain(*pi)
	extra, err := decodeWithExtra(data, &p, pi.Extra)
	*pi = PackingItem(p)
	pi.Extra = extra
	return err
}

func (b Bag) MarshalJSON() ([]byte, error) {
	type plain Bag
	return encodeWithExtra(plain(b), b.Extra)
}

func (b *Bag) UnmarshalJSON(data []byte) error {
	type plain Bag
	p := plain(*b)
	extra, err := decodeWithExtra(data, &p, b.Extra)
	*b = Bag(p)
	b.Extra = extra
	return err
}
