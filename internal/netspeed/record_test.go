// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package netspeed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKEMCount(t *testing.T) {
	assert.Equal(t, 0, (&Record{}).KEMCount())
	assert.Equal(t, 1, (&Record{KEM: "KEM"}).KEMCount())
	assert.Equal(t, 2, (&Record{KEM: "KEM", KEM2: "KEM"}).KEMCount())
	assert.Equal(t, 2, (&Record{LineNumber: "KEM123KEM"}).KEMCount())
}

func TestDedupKey_StableAcrossEquivalentRows(t *testing.T) {
	a := &Record{SerialNumber: "FCH1", MACAddress: "AA", LineNumber: "+49 123"}
	b := &Record{SerialNumber: "FCH1", MACAddress: "AA", LineNumber: "49123"}
	assert.Equal(t, a.DedupKey(), b.DedupKey())
}

func TestFieldRoundTrip(t *testing.T) {
	r := &Record{}
	for _, f := range CanonicalFields {
		r.SetField(f, f+"-value")
	}
	for _, f := range CanonicalFields {
		assert.Equal(t, f+"-value", r.Field(f))
	}
	assert.Equal(t, len(CanonicalFields), r.NonEmptyFieldCount())
}
