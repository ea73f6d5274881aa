// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package stats is the C4 Statistics Engine: snapshot computation, timeline
// queries with carry-forward, and archive queries, §4.4.
package stats

import (
	"sort"
	"strconv"

	"github.com/netspeed-inventory/backend/internal/netspeed"
)

// VLANCount is one entry of a switch's or location's VLAN usage histogram.
type VLANCount struct {
	VLAN  string `json:"vlan"`
	Count int    `json:"count"`
}

// SwitchDetail is one switch's per-VLAN breakdown within a location.
type SwitchDetail struct {
	Hostname string      `json:"hostname"`
	VLANs    []VLANCount `json:"vlans"`
}

// KEMPhone describes one phone carrying at least one KEM module, §4.4.1.
type KEMPhone struct {
	Model      string `json:"model"`
	MAC        string `json:"mac"`
	Serial     string `json:"serial"`
	Switch     string `json:"switch"`
	IP         string `json:"ip,omitempty"`
	KEMModules int    `json:"kemModules"`
}

// LocationDetail is the per-location breakdown computed for detailed
// snapshots, §4.4.1.
type LocationDetail struct {
	Location            string         `json:"location"`
	TotalPhones          int            `json:"totalPhones"`
	TotalSwitches        int            `json:"totalSwitches"`
	PhonesWithKEM        int            `json:"phonesWithKEM"`
	PhonesByModel        map[string]int `json:"phonesByModel"`
	PhonesByModelJustiz  map[string]int `json:"phonesByModelJustiz"`
	PhonesByModelJVA     map[string]int `json:"phonesByModelJVA"`
	VLANUsage            []VLANCount    `json:"vlanUsage"`
	Switches             []SwitchDetail `json:"switches"`
	KEMPhones            []KEMPhone     `json:"kemPhones"`
}

// Snapshot is one daily aggregate document, global plus (for detailed runs)
// the set of per-location breakdowns, §4.4.1/§3.
type Snapshot struct {
	File          string `json:"file"`
	Date          string `json:"date"`
	TotalPhones   int    `json:"totalPhones"`
	TotalSwitches int    `json:"totalSwitches"`
	Locations     []string `json:"locations"`
	CityCodes     []string `json:"cityCodes"`
	PhonesWithKEM int      `json:"phonesWithKEM"`
	TotalKEMs     int      `json:"totalKEMs"`

	PhonesByModel       map[string]int `json:"phonesByModel"`
	PhonesByModelJustiz map[string]int `json:"phonesByModelJustiz"`
	PhonesByModelJVA    map[string]int `json:"phonesByModelJVA"`

	SwitchesJustiz int `json:"switchesJustiz"`
	SwitchesJVA    int `json:"switchesJVA"`

	// LocationDetails holds the per-location breakdowns when Compute runs
	// with detailed set; the map key is the 5-character location code. Nil
	// for minimal snapshots.
	LocationDetails map[string]*LocationDetail `json:"locationDetails,omitempty"`
}

// Compute implements §4.4.1: a normalized row stream plus a (file, date)
// pair produces a snapshot. Rows are deduplicated defensively (idempotent
// per the normalizer's own dedup rule) before aggregation. detailed
// controls whether per-location breakdowns are built.
func Compute(file, date string, records []*netspeed.Record, detailed bool) *Snapshot {
	deduped := netspeed.Dedup(records)

	s := &Snapshot{
		File:                file,
		Date:                date,
		PhonesByModel:       map[string]int{},
		PhonesByModelJustiz: map[string]int{},
		PhonesByModelJVA:    map[string]int{},
	}

	switchSeen := map[string]bool{}
	locationSeen := map[string]bool{}
	citySeen := map[string]bool{}
	switchJustizSeen := map[string]bool{}
	switchJVASeen := map[string]bool{}

	var locGroups map[string][]*netspeed.Record
	if detailed {
		locGroups = map[string][]*netspeed.Record{}
	}

	for _, r := range deduped {
		s.TotalPhones++

		model := netspeed.NormalizedModelName(r.ModelName)
		s.PhonesByModel[model]++

		kem := r.KEMCount()
		if kem > 0 {
			s.PhonesWithKEM++
		}
		s.TotalKEMs += kem

		if r.SwitchHostname != "" {
			switchSeen[r.SwitchHostname] = true
		}

		location, ok := netspeed.ExtractLocation(r.SwitchHostname)
		if ok {
			locationSeen[location] = true
			citySeen[netspeed.ExtractCityCode(location)] = true
		}

		// Rows without a resolvable switch default to Justiz; JVA and
		// Justiz are mutually exclusive, never both.
		if ok && netspeed.IsJVASwitch(location) {
			s.PhonesByModelJVA[model]++
			switchJVASeen[r.SwitchHostname] = true
		} else {
			s.PhonesByModelJustiz[model]++
			switchJustizSeen[r.SwitchHostname] = true
		}

		if detailed && ok {
			locGroups[location] = append(locGroups[location], r)
		}
	}

	s.TotalSwitches = len(switchSeen)
	s.Locations = sortedKeys(locationSeen)
	s.CityCodes = sortedKeys(citySeen)
	s.SwitchesJustiz = len(switchJustizSeen)
	s.SwitchesJVA = len(switchJVASeen)

	if detailed {
		s.LocationDetails = map[string]*LocationDetail{}
		for loc, rows := range locGroups {
			s.LocationDetails[loc] = computeLocationDetail(loc, rows)
		}
	}

	return s
}

func computeLocationDetail(location string, rows []*netspeed.Record) *LocationDetail {
	d := &LocationDetail{
		Location:            location,
		PhonesByModel:       map[string]int{},
		PhonesByModelJustiz: map[string]int{},
		PhonesByModelJVA:    map[string]int{},
	}

	switchSeen := map[string]bool{}
	vlanCount := map[string]int{}
	switchVLAN := map[string]map[string]int{}
	isJVA := netspeed.IsJVASwitch(location)

	for _, r := range rows {
		d.TotalPhones++
		model := netspeed.NormalizedModelName(r.ModelName)
		d.PhonesByModel[model]++
		if isJVA {
			d.PhonesByModelJVA[model]++
		} else {
			d.PhonesByModelJustiz[model]++
		}

		if r.SwitchHostname != "" {
			switchSeen[r.SwitchHostname] = true
		}

		if kem := r.KEMCount(); kem > 0 {
			d.PhonesWithKEM++
			d.KEMPhones = append(d.KEMPhones, KEMPhone{
				Model:      model,
				MAC:        r.MACAddress,
				Serial:     r.SerialNumber,
				Switch:     r.SwitchHostname,
				IP:         r.IPAddress,
				KEMModules: kem,
			})
		}

		if r.VoiceVLAN != "" {
			vlanCount[r.VoiceVLAN]++
			if switchVLAN[r.SwitchHostname] == nil {
				switchVLAN[r.SwitchHostname] = map[string]int{}
			}
			switchVLAN[r.SwitchHostname][r.VoiceVLAN]++
		}
	}

	d.TotalSwitches = len(switchSeen)
	d.VLANUsage = sortedVLANCounts(vlanCount)

	hostnames := make([]string, 0, len(switchVLAN))
	for h := range switchVLAN {
		hostnames = append(hostnames, h)
	}
	sort.Strings(hostnames)
	for _, h := range hostnames {
		d.Switches = append(d.Switches, SwitchDetail{Hostname: h, VLANs: sortedVLANCounts(switchVLAN[h])})
	}

	return d
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// sortedVLANCounts implements the §4.4.1 VLAN sort: numeric VLAN ids first
// in ascending numeric order, then any non-numeric ids lexicographically.
func sortedVLANCounts(counts map[string]int) []VLANCount {
	out := make([]VLANCount, 0, len(counts))
	for vlan, count := range counts {
		out = append(out, VLANCount{VLAN: vlan, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		ni, iok := strconv.Atoi(out[i].VLAN)
		nj, jok := strconv.Atoi(out[j].VLAN)
		if iok == nil && jok == nil {
			return ni < nj
		}
		if iok == nil {
			return true
		}
		if jok == nil {
			return false
		}
		return out[i].VLAN < out[j].VLAN
	})
	return out
}
