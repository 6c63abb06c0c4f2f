package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateSlug(t *testing.T) {
	cases := map[string]string{
		"Hardware Computer":      "hardware-computer",
		"Rete e Connettività":    "rete-e-connettivit",
		"  A!! B  ":              "a-b",
		"already-a-slug":         "already-a-slug",
		"Multiple   Spaces Here": "multiple-spaces-here",
		"--edges--":              "edges",
		"":                       "",
		"!!!":                    "",
	}
	for input, want := range cases {
		assert.Equal(t, want, GenerateSlug(input), "input %q", input)
	}
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("user@example.com"))
	assert.True(t, IsValidEmail("a.b+c@sub.domain.it"))
	assert.False(t, IsValidEmail("not-an-email"))
	assert.False(t, IsValidEmail("missing@tld"))
	assert.False(t, IsValidEmail("spaces in@example.com"))
	assert.False(t, IsValidEmail(""))
}

func TestIsValidClinicCode(t *testing.T) {
	assert.True(t, IsValidClinicCode("DEMO001"))
	assert.True(t, IsValidClinicCode("abc"))
	assert.True(t, IsValidClinicCode("ABCDEFGHIJ"))
	assert.False(t, IsValidClinicCode("ab"))
	assert.False(t, IsValidClinicCode("ABCDEFGHIJK"))
	assert.False(t, IsValidClinicCode("with-dash"))
	assert.False(t, IsValidClinicCode(""))
}

func TestSLADeadline(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, now.Add(24*time.Hour), SLADeadline(now, 24))
}

func TestIsSLAExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.True(t, IsSLAExpired(now, &past))
	assert.False(t, IsSLAExpired(now, &future))
	assert.False(t, IsSLAExpired(now, nil))
}

func TestIsSLAExpiring(t *testing.T) {
	now := time.Now()
	soon := now.Add(30 * time.Minute)
	far := now.Add(3 * time.Hour)
	past := now.Add(-time.Minute)

	assert.True(t, IsSLAExpiring(now, &soon, time.Hour))
	assert.False(t, IsSLAExpiring(now, &far, time.Hour))
	assert.False(t, IsSLAExpiring(now, &past, time.Hour))
	assert.False(t, IsSLAExpiring(now, nil, time.Hour))
}
