// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package searchengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectIntent(t *testing.T) {
	cases := []struct {
		query string
		field string
		want  Intent
	}{
		{"4912345678", "", IntentPhone},
		{"+4912345678", "", IntentPhone},
		{"SN1234567ABC", "", IntentSerial},
		{"AABBCCDDEEFF", "", IntentMAC},
		{"aa:bb:cc:dd:ee:ff", "", IntentMAC},
		{"SEPAABBCCDDEEFF", "", IntentMAC},
		{"ERX01", "", IntentHostnameCode},
		{"switch1.corp.example.com", "", IntentFQDN},
		{"GigabitEthernet1/0/24", "Switch Port", IntentSwitchPort},
		{"192.168.1.1", "", IntentIPFull},
		{"192.168.1", "", IntentIPPartial},
		{"123", "", IntentVoiceVLAN},
		{"8945", "", IntentModel4Digit},
		{"random text query", "", IntentGeneric},
	}
	for _, c := range cases {
		got := DetectIntent(c.query, c.field)
		assert.Equalf(t, c.want, got, "query=%q field=%q", c.query, c.field)
	}
}

func TestBuildPlan_MACForcesWildcardIndices(t *testing.T) {
	plan := BuildPlan(PlanInput{
		Query:            "AABBCCDDEEFF",
		CandidateIndices: []string{"netspeed_current"},
	})
	assert.Equal(t, []string{IndexWildcard}, plan.Indices)
	assert.Equal(t, IntentMAC, plan.Intent)
}

func TestBuildPlan_CapsSizeAtDefault(t *testing.T) {
	plan := BuildPlan(PlanInput{Query: "something", CandidateIndices: []string{"netspeed_current"}})
	assert.Equal(t, 5000, plan.Body["size"])
}

func TestBuildPlan_RespectsExplicitLimit(t *testing.T) {
	plan := BuildPlan(PlanInput{Query: "something", Limit: 50, CandidateIndices: []string{"netspeed_current"}})
	assert.Equal(t, 50, plan.Body["size"])
}

func TestMacAddressVariants_IncludesCommonFormats(t *testing.T) {
	variants := macAddressVariants("AABBCCDDEEFF")
	assert.Contains(t, variants, "AABBCCDDEEFF")
	assert.Contains(t, variants, "AA:BB:CC:DD:EE:FF")
	assert.Contains(t, variants, "AA-BB-CC-DD-EE-FF")
	assert.Contains(t, variants, "SEPAABBCCDDEEFF")
}
