package university

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int           { return &i }
func floatPtr(f float64) *float64 { return &f }

func TestUniversity_Tuition(t *testing.T) {
	public := University{Attributes: Attributes{State: "CA", Control: ControlPublic, TuitionInState: 14000, TuitionOutState: 44000, RoomBoard: 18000, BooksSupplies: 1000, OtherExpenses: 2000}}
	private := University{Attributes: Attributes{State: "CA", Control: ControlPrivate, TuitionInState: 60000}}
	noOutOfState := University{Attributes: Attributes{State: "TX", Control: ControlPublic, TuitionInState: 11000}}

	assert.Equal(t, 14000.0, public.Tuition("ca"))
	assert.Equal(t, 44000.0, public.Tuition("NY"))
	assert.Equal(t, 44000.0, public.Tuition(""), "unknown residents pay out-of-state")
	assert.Equal(t, 60000.0, private.Tuition("NY"))
	assert.Equal(t, 11000.0, noOutOfState.Tuition("CA"))

	assert.Equal(t, 35000.0, public.CostOfAttendance("CA"))
	assert.Equal(t, 65000.0, public.CostOfAttendance("NY"))
}

func TestUniversity_SizeCategory(t *testing.T) {
	tests := map[int]string{0: "", 1: SizeSmall, 4999: SizeSmall, 5000: SizeMedium, 15000: SizeMedium, 15001: SizeLarge}
	for size, want := range tests {
		assert.Equal(t, want, University{Attributes: Attributes{Size: size}}.SizeCategory(), size)
	}

	for _, category := range []string{SizeSmall, SizeMedium, SizeLarge} {
		min, max, ok := SizeRange(category)
		require.True(t, ok)
		assert.Equal(t, category, University{Attributes: Attributes{Size: min}}.SizeCategory())
		if max > 0 {
			assert.Equal(t, category, University{Attributes: Attributes{Size: max}}.SizeCategory())
		}
	}
	_, _, ok := SizeRange("huge")
	assert.False(t, ok)
}

func TestSearchFilter_Matches(t *testing.T) {
	u := University{Attributes: Attributes{
		Name:            "Lakeside State University",
		City:            "Madison",
		State:           "WI",
		Setting:         SettingUrban,
		Control:         ControlPublic,
		Size:            33000,
		TuitionInState:  10800,
		TuitionOutState: 39400,
		AcceptanceRate:  floatPtr(49),
		SAT25:           intPtr(1300),
		PopularMajors:   []string{"computer science", "economics"},
	}}

	tests := []struct {
		name   string
		filter *SearchFilter
		want   bool
	}{
		{name: "nil", filter: nil, want: true},
		{name: "query on name", filter: &SearchFilter{Query: "lakeside"}, want: true},
		{name: "query on city", filter: &SearchFilter{Query: "MADI"}, want: true},
		{name: "query miss", filter: &SearchFilter{Query: "harbor"}, want: false},
		{name: "states", filter: &SearchFilter{States: []string{"CA", "WI"}}, want: true},
		{name: "other state", filter: &SearchFilter{States: []string{"CA"}}, want: false},
		{name: "setting", filter: &SearchFilter{Setting: SettingRural}, want: false},
		{name: "size", filter: &SearchFilter{Size: SizeLarge}, want: true},
		{name: "resident tuition", filter: &SearchFilter{MaxTuition: 20000, ResidentState: "WI"}, want: true},
		{name: "non-resident tuition", filter: &SearchFilter{MaxTuition: 20000, ResidentState: "IL"}, want: false},
		{name: "acceptance range", filter: &SearchFilter{MinAcceptance: 40, MaxAcceptance: 60}, want: true},
		{name: "too selective", filter: &SearchFilter{MaxAcceptance: 20}, want: false},
		{name: "sat above 25th", filter: &SearchFilter{SAT: 1350}, want: true},
		{name: "sat below 25th", filter: &SearchFilter{SAT: 1200}, want: false},
		{name: "major substring", filter: &SearchFilter{Major: "computer"}, want: true},
		{name: "missing major", filter: &SearchFilter{Major: "nursing"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.filter != nil {
				tt.filter.Clean()
			}
			assert.Equal(t, tt.want, tt.filter.Matches(u))
		})
	}
}

func TestParseSeed(t *testing.T) {
	attrs, err := ParseSeed([]byte(`
universities:
  - name: Harbor College
    state: ME
    sat_25: 1200
    ratings: {academics: 4.1, campus_life: 3.9}
    popular_majors: [history]
`))
	require.NoError(t, err)
	require.Len(t, attrs, 1)
	assert.Equal(t, "Harbor College", attrs[0].Name)
	assert.Equal(t, 1200, *attrs[0].SAT25)
	require.NotNil(t, attrs[0].Ratings.CampusLife)
	assert.Equal(t, 3.9, *attrs[0].Ratings.CampusLife)
	assert.Equal(t, []string{"history"}, attrs[0].PopularMajors)

	_, err = ParseSeed([]byte("universities: {"))
	assert.Error(t, err)
}
