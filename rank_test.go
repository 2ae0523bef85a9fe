package pricedash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeAndRank(t *testing.T) {
	base := ProductTable{{Title: "A", Price: 10}, {Title: "B", Price: 20}}

	tests := map[string]struct {
		base   ProductTable
		upload *ProductTable
		want   ProductTable
	}{
		"no upload passes the base table through": {
			base: ProductTable{{Title: "B", Price: 20}, {Title: "A", Price: 10}},
			want: ProductTable{{Title: "B", Price: 20}, {Title: "A", Price: 10}},
		},
		"no upload does not reduce to five": {
			base: ProductTable{{"a", 7}, {"b", 6}, {"c", 5}, {"d", 4}, {"e", 3}, {"f", 2}},
			want: ProductTable{{"a", 7}, {"b", 6}, {"c", 5}, {"d", 4}, {"e", 3}, {"f", 2}},
		},
		"upload keeps the five most expensive": {
			base:   base,
			upload: &ProductTable{{"C", 50}, {"D", 40}, {"E", 30}, {"F", 5}},
			want:   ProductTable{{"C", 50}, {"D", 40}, {"E", 30}, {"B", 20}, {"A", 10}},
		},
		"fewer than five rows keeps all of them": {
			base:   base,
			upload: &ProductTable{{"C", 15}},
			want:   ProductTable{{"B", 20}, {"C", 15}, {"A", 10}},
		},
		"empty upload still sorts and reduces": {
			base:   ProductTable{{"a", 1}, {"b", 2}},
			upload: &ProductTable{},
			want:   ProductTable{{"b", 2}, {"a", 1}},
		},
		"duplicates across sources are kept": {
			base:   base,
			upload: &ProductTable{{"B", 20}},
			want:   ProductTable{{"B", 20}, {"B", 20}, {"A", 10}},
		},
		"ties at the cutoff keep the earlier row": {
			base:   ProductTable{{"a", 9}, {"b", 8}, {"c", 7}, {"d", 6}, {"base-tie", 5}},
			upload: &ProductTable{{"upload-tie", 5}, {"low", 1}},
			want:   ProductTable{{"a", 9}, {"b", 8}, {"c", 7}, {"d", 6}, {"base-tie", 5}},
		},
		"ties inside the upload keep upload order": {
			base:   ProductTable{},
			upload: &ProductTable{{"x1", 1}, {"x2", 1}, {"x3", 1}, {"x4", 1}, {"x5", 1}, {"x6", 1}},
			want:   ProductTable{{"x1", 1}, {"x2", 1}, {"x3", 1}, {"x4", 1}, {"x5", 1}},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got := MergeAndRank(tc.base, tc.upload)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMergeAndRankExcludesOnlyCheaperRows(t *testing.T) {
	base := ProductTable{{"a", 3}, {"b", 9}, {"c", 1}, {"d", 12}}
	upload := ProductTable{{"e", 4}, {"f", 9}, {"g", 0.5}, {"h", 7}}

	got := MergeAndRank(base, &upload)
	assert.Len(t, got, TopN)

	kept := map[string]bool{}
	lowest := got[len(got)-1].Price
	for _, r := range got {
		kept[r.Title] = true
		assert.GreaterOrEqual(t, r.Price, lowest)
	}
	for _, r := range append(base, upload...) {
		if !kept[r.Title] {
			assert.LessOrEqual(t, r.Price, lowest, "excluded %s is more expensive than a kept row", r.Title)
		}
	}
}

func TestMergeAndRankDoesNotModifyInputs(t *testing.T) {
	base := ProductTable{{"a", 1}, {"b", 2}}
	upload := ProductTable{{"c", 3}}
	_ = MergeAndRank(base, &upload)

	assert.Equal(t, ProductTable{{"a", 1}, {"b", 2}}, base)
	assert.Equal(t, ProductTable{{"c", 3}}, upload)
}

func TestTopByPrice(t *testing.T) {
	tbl := ProductTable{{"a", 1}, {"b", 3}, {"c", 2}}
	assert.Equal(t, ProductTable{{"b", 3}, {"c", 2}}, TopByPrice(tbl, 2))
	assert.Equal(t, ProductTable{}, TopByPrice(tbl, 0))
	assert.Equal(t, ProductTable{}, TopByPrice(nil, 5))
}

func TestParseChartKind(t *testing.T) {
	for _, s := range []string{"bar", "LINE", " scatter ", "Pie"} {
		k, err := ParseChartKind(s)
		assert.NoError(t, err, s)
		assert.True(t, k.Valid(), s)
	}

	k, err := ParseChartKind("histogram")
	assert.Error(t, err)
	assert.Equal(t, ChartKind("histogram"), k)
	assert.False(t, k.Valid())
}
