package allocation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/apperr"
)

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{
		"NONE":                  ModeNone,
		"all_resident_students": ModeAllResident,
		" MANUAL_LIST ":         ModeManualList,
		"seluruh_binaan_mukim":  ModeAllResident,
		"pilih_santri":          ModeManualList,
		"tidak_dialokasikan":    ModeNone,
	} {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseMode("SOME")
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestMappingInputNormalize(t *testing.T) {
	m, err := MappingInput{
		Scope:       ScopeSubcategory,
		Category:    "  Bantuan   Langsung Yayasan ",
		Subcategory: "SPP",
		Mode:        "pilih_santri",
		StudentIDs:  []string{"S-2", "S-1", "S-2"},
	}.Normalize()
	require.NoError(t, err)

	assert.Equal(t, "Bantuan Langsung Yayasan", m.Category)
	assert.Equal(t, ModeManualList, m.Mode)
	assert.Equal(t, []string{"S-2", "S-1"}, []string(m.StudentIDs))
	assert.Equal(t, ScopeKey(ScopeSubcategory, "bantuan langsung yayasan", "spp"), m.ScopeKey)
	assert.True(t, m.Active)
}

func TestMappingInputRejects(t *testing.T) {
	cases := map[string]MappingInput{
		"category scope with subcategory": {Scope: ScopeCategory, Category: "A", Subcategory: "B", Mode: "NONE"},
		"subcategory scope without one":   {Scope: ScopeSubcategory, Category: "A", Mode: "NONE"},
		"unknown scope":                   {Scope: "ledger", Category: "A", Mode: "NONE"},
		"ids outside manual list":         {Scope: ScopeCategory, Category: "A", Mode: "ALL_RESIDENT_STUDENTS", StudentIDs: []string{"1"}},
		"malformed id":                    {Scope: ScopeCategory, Category: "A", Mode: "MANUAL_LIST", StudentIDs: []string{"1; drop"}},
		"blank category":                  {Scope: ScopeCategory, Category: "  ", Mode: "NONE"},
	}
	for name, in := range cases {
		_, err := in.Normalize()
		assert.True(t, errors.Is(err, apperr.ErrValidation), name)
	}
}

func TestMembershipFromMapping(t *testing.T) {
	mem, err := Mapping{Mode: ModeManualList, StudentIDs: []string{"1", "2"}}.Membership()
	require.NoError(t, err)
	assert.Equal(t, ManualList{StudentIDs: []string{"1", "2"}}, mem)

	_, err = Mapping{Mode: "OTHER"}.Membership()
	assert.True(t, errors.Is(err, apperr.ErrInvariant))
}
