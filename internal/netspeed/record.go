// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package netspeed implements the canonical phone-inventory record, the
// discovery of netspeed CSV exports across the configured data roots, and
// the CSV normalizer that turns any of the historical column layouts into
// the canonical 16-field record.
package netspeed

// Record is the canonical 16-field netspeed row plus the metadata the
// normalizer attaches to every row it produces.
type Record struct {
	IPAddress      string
	LineNumber     string
	SerialNumber   string
	ModelName      string
	KEM            string
	KEM2           string
	MACAddress     string
	MACAddress2    string
	SubnetMask     string
	VoiceVLAN      string
	Speed1         string
	Speed2         string
	SwitchHostname string
	SwitchPort     string
	SwitchPortMode string
	PCPortMode     string

	// Metadata added by the normalizer.
	FileName     string
	CreationDate string // YYYY-MM-DD
	RowOrdinal   int    // "#", 1-based

	// Extra carries any unrecognized/extension columns untouched, keyed by
	// their original header text.
	Extra map[string]string
}

// CanonicalFields is the fixed field order of the 16-field schema, §3.
var CanonicalFields = []string{
	"IP Address", "Line Number", "Serial Number", "Model Name",
	"KEM", "KEM 2", "MAC Address", "MAC Address 2",
	"Subnet Mask", "Voice VLAN", "Speed 1", "Speed 2",
	"Switch Hostname", "Switch Port", "Switch Port Mode", "PC Port Mode",
}

// MetaFields are the columns the normalizer adds ahead of the data columns
// when rendering a stable header order, §4.3.3 item 7.
var MetaFields = []string{"#", "File Name", "Creation Date"}

// Field returns the named canonical field's value. Used by the column
// classifier and the display/header rendering paths so both walk the same
// field list.
func (r *Record) Field(name string) string {
	switch name {
	case "IP Address":
		return r.IPAddress
	case "Line Number":
		return r.LineNumber
	case "Serial Number":
		return r.SerialNumber
	case "Model Name":
		return r.ModelName
	case "KEM":
		return r.KEM
	case "KEM 2":
		return r.KEM2
	case "MAC Address":
		return r.MACAddress
	case "MAC Address 2":
		return r.MACAddress2
	case "Subnet Mask":
		return r.SubnetMask
	case "Voice VLAN":
		return r.VoiceVLAN
	case "Speed 1":
		return r.Speed1
	case "Speed 2":
		return r.Speed2
	case "Switch Hostname":
		return r.SwitchHostname
	case "Switch Port":
		return r.SwitchPort
	case "Switch Port Mode":
		return r.SwitchPortMode
	case "PC Port Mode":
		return r.PCPortMode
	case "#":
		return ""
	case "File Name":
		return r.FileName
	case "Creation Date":
		return r.CreationDate
	default:
		return r.Extra[name]
	}
}

// SetField assigns a value to the named canonical field. Unknown names are
// stashed in Extra.
func (r *Record) SetField(name, value string) {
	switch name {
	case "IP Address":
		r.IPAddress = value
	case "Line Number":
		r.LineNumber = value
	case "Serial Number":
		r.SerialNumber = value
	case "Model Name":
		r.ModelName = value
	case "KEM":
		r.KEM = value
	case "KEM 2":
		r.KEM2 = value
	case "MAC Address":
		r.MACAddress = value
	case "MAC Address 2":
		r.MACAddress2 = value
	case "Subnet Mask":
		r.SubnetMask = value
	case "Voice VLAN":
		r.VoiceVLAN = value
	case "Speed 1":
		r.Speed1 = value
	case "Speed 2":
		r.Speed2 = value
	case "Switch Hostname":
		r.SwitchHostname = value
	case "Switch Port":
		r.SwitchPort = value
	case "Switch Port Mode":
		r.SwitchPortMode = value
	case "PC Port Mode":
		r.PCPortMode = value
	default:
		if r.Extra == nil {
			r.Extra = map[string]string{}
		}
		r.Extra[name] = value
	}
}

// NonEmptyFieldCount counts populated canonical fields, used to break dedup
// ties on completeness (§4.2 step 4).
func (r *Record) NonEmptyFieldCount() int {
	n := 0
	for _, f := range CanonicalFields {
		if r.Field(f) != "" {
			n++
		}
	}
	return n
}

// KEMCount implements the §3 "Derived domain keys / KEM count per row" rule:
// 1 if KEM non-empty plus 1 if KEM 2 non-empty; if both are empty, count
// occurrences of the token "KEM" in Line Number instead.
func (r *Record) KEMCount() int {
	count := 0
	if r.KEM != "" {
		count++
	}
	if r.KEM2 != "" {
		count++
	}
	if count == 0 {
		count = countSubstring(r.LineNumber, "KEM")
	}
	return count
}

func countSubstring(s, sub string) int {
	if sub == "" {
		return 0
	}
	count := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			count++
			i += len(sub) - 1
		}
	}
	return count
}

// DedupKey is the §4.2 step 4 composite dedup key: (Serial Number, MAC
// Address, digits-only Line Number).
func (r *Record) DedupKey() string {
	return r.SerialNumber + "\x00" + r.MACAddress + "\x00" + digitsOnly(r.LineNumber)
}

func digitsOnly(s string) string {
	b := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b = append(b, s[i])
		}
	}
	return string(b)
}
