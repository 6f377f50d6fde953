package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benouakrim/Academora-02-sub002/core"
	"github.com/Benouakrim/Academora-02-sub002/core/university"
)

func fPtr(f float64) *float64 { return &f }
func iPtr(i int) *int         { return &i }

func TestWeights_Normalize(t *testing.T) {
	tests := []struct {
		name    string
		weights Weights
		want    Weights
		wantErr bool
	}{
		{
			name:    "empty",
			weights: Weights{},
			want:    Weights{Academic: 20, Financial: 20, Location: 20, Social: 20, Future: 20},
		},
		{
			name:    "all zero",
			weights: Weights{Academic: 0, Future: 0},
			want:    Weights{Academic: 20, Financial: 20, Location: 20, Social: 20, Future: 20},
		},
		{
			name:    "already normalized",
			weights: Weights{Academic: 40, Financial: 15, Location: 15, Social: 10, Future: 20},
			want:    Weights{Academic: 40, Financial: 15, Location: 15, Social: 10, Future: 20},
		},
		{
			name:    "scaled up",
			weights: Weights{Academic: 1, Financial: 1},
			want:    Weights{Academic: 50, Financial: 50, Location: 0, Social: 0, Future: 0},
		},
		{
			name:    "largest remainder",
			weights: Weights{Academic: 2, Financial: 1},
			want:    Weights{Academic: 66.7, Financial: 33.3, Location: 0, Social: 0, Future: 0},
		},
		{
			name:    "equal remainders go to the first categories",
			weights: Weights{Academic: 1, Financial: 1, Location: 1},
			want:    Weights{Academic: 33.4, Financial: 33.3, Location: 33.3, Social: 0, Future: 0},
		},
		{name: "negative", weights: Weights{Academic: -1}, wantErr: true},
		{name: "unknown category", weights: Weights{"weather": 10}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.weights.Normalize()
			if tt.wantErr {
				assert.Error(t, err)
				_, ok := err.(*core.ValidationError)
				assert.True(t, ok, "want a validation error, got %T", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			var units int
			for _, w := range got {
				units += int(w*10 + 0.5)
			}
			assert.Equal(t, 1000, units)
		})
	}
}

func TestWeights_Heaviest(t *testing.T) {
	assert.Equal(t, Academic, Weights{Academic: 20, Financial: 20, Location: 20, Social: 20, Future: 20}.Heaviest())
	assert.Equal(t, Future, Weights{Academic: 20, Future: 50}.Heaviest())
}

func TestParsePresets(t *testing.T) {
	data := []byte(`
presets:
  - name: balanced
    label: Even
    weights: {academic: 1, financial: 1, location: 1, social: 1, future: 1}
  - name: stem
    weights: {academic: 3, future: 1}
`)
	presets, err := ParsePresets(data, DefaultPresets())
	require.NoError(t, err)
	assert.Len(t, presets, len(DefaultPresets())+1)
	assert.Equal(t, "Even", presets[PresetBalanced].Label)
	assert.Equal(t, Weights{Academic: 75, Financial: 0, Location: 0, Social: 0, Future: 25}, presets["stem"].Weights)
	assert.Equal(t, "stem", presets["stem"].Label)

	sorted := SortedPresets(presets)
	assert.Equal(t, PresetBalanced, sorted[0].Name)

	_, err = ParsePresets([]byte(`presets: [{name: bad, weights: {academic: -2}}]`), nil)
	assert.Error(t, err)
	_, err = ParsePresets([]byte(`presets: [{weights: {academic: 2}}]`), nil)
	assert.Error(t, err)
}

func TestDefaultPresets_sumTo100(t *testing.T) {
	for name, p := range DefaultPresets() {
		var sum float64
		for _, w := range p.Weights {
			sum += w
		}
		assert.Equal(t, float64(100), sum, name)
		norm, err := p.Weights.Normalize()
		require.NoError(t, err)
		assert.Equal(t, p.Weights, norm, name)
	}
}

func testUniversity() university.University {
	return university.University{
		ID: "a",
		Attributes: university.Attributes{
			Name: "Alpha University", State: "CA", Setting: university.SettingUrban, Size: 10000,
			TuitionInState: 10000, TuitionOutState: 30000, RoomBoard: 10000,
			AcceptanceRate: fPtr(50), SAT25: iPtr(1200), SAT75: iPtr(1400), AvgGPA: fPtr(3.5),
			GraduationRate: fPtr(80), MedianEarnings: fPtr(62500), EmploymentRate: fPtr(90),
			Ratings:       university.Ratings{CampusLife: fPtr(4), Diversity: fPtr(4), Satisfaction: fPtr(4)},
			PopularMajors: []string{"computer science", "biology"},
		},
	}
}

func balanced(t *testing.T) Weights {
	w, err := DefaultPresets()[PresetBalanced].Weights.Normalize()
	require.NoError(t, err)
	return w
}

func TestScore_complete(t *testing.T) {
	p := Profile{
		SAT: iPtr(1300), GPA: fPtr(3.5),
		HomeState: "CA", PreferredStates: []string{"CA"}, PreferredSetting: university.SettingUrban,
		PreferredSize: university.SizeMedium, Budget: fPtr(20000), IntendedMajors: []string{"computer science"},
	}
	res := Score(testUniversity(), p, balanced(t), PrecisionBasic)

	assert.Equal(t, float64(86), res.Overall)
	assert.Equal(t, LabelExcellent, res.Label)
	assert.Empty(t, res.Excluded)
	require.Len(t, res.Categories, 5)

	want := map[string]float64{Academic: 80, Financial: 80, Location: 100, Social: 90, Future: 80}
	for _, cs := range res.Categories {
		assert.Equal(t, want[cs.Category], cs.Score, cs.Category)
		assert.Equal(t, float64(20), cs.Weight, cs.Category)
		assert.False(t, cs.Neutral, cs.Category)
	}
	require.NotNil(t, res.NetPrice)
	assert.Equal(t, float64(20000), *res.NetPrice)
}

func TestScore_missingData(t *testing.T) {
	p := Profile{SAT: iPtr(1300)}
	u := testUniversity()

	t.Run("basic scores missing categories as neutral", func(t *testing.T) {
		res := Score(u, p, balanced(t), PrecisionBasic)
		assert.Equal(t, float64(67), res.Overall)
		assert.Equal(t, LabelGood, res.Label)
		assert.Empty(t, res.Excluded)
		for _, cs := range res.Categories {
			switch cs.Category {
			case Financial, Location:
				assert.True(t, cs.Neutral)
				assert.Equal(t, NeutralScore, cs.Score)
			case Future:
				assert.Equal(t, float64(73), cs.Score)
			}
		}
	})

	t.Run("precise excludes missing categories", func(t *testing.T) {
		res := Score(u, p, balanced(t), PrecisionPrecise)
		assert.Equal(t, 77.8, res.Overall)
		assert.Equal(t, LabelStrong, res.Label)
		assert.Equal(t, []string{Financial, Location}, res.Excluded)
		require.Len(t, res.Categories, 3)

		weights := map[string]float64{}
		for _, cs := range res.Categories {
			weights[cs.Category] = cs.Weight
		}
		assert.Equal(t, map[string]float64{Academic: 33.4, Social: 33.3, Future: 33.3}, weights)
		assert.Equal(t, 73.3, res.Categories[2].Score)
	})

	t.Run("precise without any data is neutral", func(t *testing.T) {
		res := Score(university.University{ID: "x", Attributes: university.Attributes{Name: "X"}}, Profile{}, balanced(t), PrecisionPrecise)
		assert.Equal(t, NeutralScore, res.Overall)
		assert.Len(t, res.Excluded, 5)
		assert.Empty(t, res.Categories)
		assert.Nil(t, res.NetPrice)
	})

	t.Run("precise with data only for unweighted categories is neutral", func(t *testing.T) {
		w, err := Weights{Academic: 100}.Normalize()
		require.NoError(t, err)

		res := Score(u, Profile{}, w, PrecisionPrecise)
		assert.Equal(t, NeutralScore, res.Overall)
		assert.Equal(t, Label(NeutralScore), res.Label)
		assert.Contains(t, res.Excluded, Academic)
		require.NotEmpty(t, res.Categories)
		for _, cs := range res.Categories {
			assert.Zero(t, cs.Weight, cs.Category)
			assert.Zero(t, cs.Contribution, cs.Category)
		}
	})
}

func TestLabel(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{100, LabelExcellent}, {85, LabelExcellent}, {84.9, LabelStrong}, {70, LabelStrong},
		{69, LabelGood}, {55, LabelGood}, {54.9, LabelFair}, {40, LabelFair}, {39.9, LabelReach}, {0, LabelReach},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Label(tt.score), "score %v", tt.score)
	}
}

func TestRank_tieBreaks(t *testing.T) {
	named := func(id, name string, coa float64, rank *int) university.University {
		return university.University{ID: id, Attributes: university.Attributes{Name: name, TuitionInState: coa, NationalRank: rank}}
	}

	t.Run("price, rank, name then id", func(t *testing.T) {
		univs := []university.University{
			named("1", "Expensive", 30000, nil),
			named("2", "Free B", 0, iPtr(5)),
			named("3", "Cheap", 20000, nil),
			named("4", "Free A", 0, nil),
			named("5", "Free A", 0, nil),
			named("6", "Free C", 0, iPtr(2)),
		}
		results := Rank(univs, Profile{}, balanced(t), PrecisionBasic)

		ids := make([]string, 0, len(results))
		for _, r := range results {
			assert.Equal(t, NeutralScore, r.Overall)
			ids = append(ids, r.UniversityID)
		}
		assert.Equal(t, []string{"3", "1", "6", "2", "4", "5"}, ids)
	})

	t.Run("heaviest category first", func(t *testing.T) {
		strong := university.University{ID: "s", Attributes: university.Attributes{
			Name: "Zulu", SAT25: iPtr(1200), SAT75: iPtr(1400), GraduationRate: fPtr(50),
		}}
		other := university.University{ID: "o", Attributes: university.Attributes{
			Name: "Alpha", GraduationRate: fPtr(70),
		}}
		w, err := Weights{Academic: 50, Future: 50}.Normalize()
		require.NoError(t, err)

		results := Rank([]university.University{other, strong}, Profile{SAT: iPtr(1280)}, w, PrecisionBasic)
		require.Len(t, results, 2)
		assert.Equal(t, results[0].Overall, results[1].Overall)
		assert.Equal(t, "s", results[0].UniversityID)
	})

	t.Run("overall first", func(t *testing.T) {
		u := testUniversity()
		plain := named("p", "Aardvark", 1000, iPtr(1))
		results := Rank([]university.University{plain, u}, Profile{SAT: iPtr(1300)}, balanced(t), PrecisionBasic)
		assert.Equal(t, u.ID, results[0].UniversityID)
	})
}

func TestService_Resolve(t *testing.T) {
	svc := &Service{presets: DefaultPresets()}

	w, precision, err := svc.Resolve(Options{})
	require.NoError(t, err)
	assert.Equal(t, PrecisionBasic, precision)
	assert.Equal(t, DefaultPresets()[PresetBalanced].Weights, w)

	w, precision, err = svc.Resolve(Options{Preset: "CAREER_ORIENTED", Precision: "precise"})
	require.NoError(t, err)
	assert.Equal(t, PrecisionPrecise, precision)
	assert.Equal(t, float64(50), w[Future])

	w, _, err = svc.Resolve(Options{Preset: PresetSocialLife, Weights: Weights{Financial: 3, Future: 1}})
	require.NoError(t, err)
	assert.Equal(t, float64(75), w[Financial])

	_, _, err = svc.Resolve(Options{Preset: "nope"})
	assert.Error(t, err)
	_, _, err = svc.Resolve(Options{Precision: "exact"})
	assert.Error(t, err)
}
