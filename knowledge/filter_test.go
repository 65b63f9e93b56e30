package knowledge

import (
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func strp(s string) *string { return &s }

func TestFilterQuick(t *testing.T) {
	c := loadFixture(t)
	tests := []struct {
		name  string
		quick QuickFilter
		want  []string
	}{
		{"all", QuickAll, []string{
			"tax-article-declaration-guide", "tax-faq-subsidy-application",
			"subsidy-article-it-digital", "subsidy-faq-success-tips",
			"visa-article-management-guide",
		}},
		{"featured", QuickFeatured, []string{
			"tax-article-declaration-guide", "subsidy-article-it-digital",
			"visa-article-management-guide",
		}},
		// Equal dates keep load order.
		{"recent", QuickRecent, []string{
			"tax-faq-subsidy-application", "subsidy-article-it-digital",
			"tax-article-declaration-guide", "visa-article-management-guide",
			"subsidy-faq-success-tips",
		}},
		// Equal view counts keep load order.
		{"popular", QuickPopular, []string{
			"subsidy-article-it-digital", "visa-article-management-guide",
			"tax-article-declaration-guide", "subsidy-faq-success-tips",
			"tax-faq-subsidy-application",
		}},
		{"unknown degrades to all", QuickFilter("trending"), []string{
			"tax-article-declaration-guide", "tax-faq-subsidy-application",
			"subsidy-article-it-digital", "subsidy-faq-success-tips",
			"visa-article-management-guide",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(c.Filter(Query{Quick: tt.quick}))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Filter(quick=%s) mismatch (-want +got):\n%s", tt.quick, diff)
			}
		})
	}
}

func TestFeaturedIsIdempotent(t *testing.T) {
	c := loadFixture(t)
	once := c.Filter(Query{Quick: QuickFeatured})
	for _, a := range once {
		if !a.Featured {
			t.Errorf("%s is not featured", a.ID)
		}
	}
	twice := applyQuick(append([]Article(nil), once...), QuickFeatured)
	if diff := cmp.Diff(ids(once), ids(twice)); diff != "" {
		t.Errorf("featured applied twice differs (-once +twice):\n%s", diff)
	}
}

func TestRecentIsNonIncreasing(t *testing.T) {
	c := loadFixture(t)
	got := c.Filter(Query{Quick: QuickRecent})
	for i := 1; i < len(got); i++ {
		if got[i].Time().After(got[i-1].Time()) {
			t.Errorf("position %d (%s) is newer than %d (%s)", i, got[i].Date, i-1, got[i-1].Date)
		}
	}
}

func TestFilterDoesNotMutateCorpus(t *testing.T) {
	c := loadFixture(t)
	before := ids(c.Articles())
	c.Filter(Query{Quick: QuickPopular})
	c.Filter(Query{Quick: QuickRecent, Search: "补助"})
	if diff := cmp.Diff(before, ids(c.Articles())); diff != "" {
		t.Errorf("corpus order changed (-before +after):\n%s", diff)
	}
}

func TestFilterIsRepeatable(t *testing.T) {
	c := loadFixture(t)
	q := Query{Quick: QuickRecent, Category: "tax"}
	first := ids(c.Filter(q))
	second := ids(c.Filter(q))
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("same query gave different results:\n%s", diff)
	}
	if diff := cmp.Diff([]string{"tax-faq-subsidy-application", "tax-article-declaration-guide"}, first); diff != "" {
		t.Errorf("recent+tax mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterCategory(t *testing.T) {
	c := loadFixture(t)
	tests := []struct {
		name string
		q    Query
		want []string
	}{
		{"category only", Query{Category: "tax"},
			[]string{"tax-article-declaration-guide", "tax-faq-subsidy-application"}},
		{"unknown category", Query{Category: "legal"}, []string{}},
		{"subcategory by tag", Query{Category: "tax", Subcategory: "corporate"},
			[]string{"tax-article-declaration-guide"}},
		// Tag matching is not restricted to the parent category.
		{"subcategory crosses buckets", Query{Category: "tax", Subcategory: "subsidy-tax"},
			[]string{"tax-faq-subsidy-application", "subsidy-article-it-digital", "subsidy-faq-success-tips"}},
		{"subcategory case-insensitive substring", Query{Category: "subsidy", Subcategory: "it"},
			[]string{"subsidy-article-it-digital"}},
		{"unknown subcategory falls back to category", Query{Category: "visa", Subcategory: "work"},
			[]string{"visa-article-management-guide"}},
		{"subcategory without category is ignored", Query{Subcategory: "corporate"},
			ids(c.Articles())},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(c.Filter(tt.q))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Filter(%+v) mismatch (-want +got):\n%s", tt.q, diff)
			}
		})
	}
}

func TestFilterDifficulty(t *testing.T) {
	c := loadFixture(t)

	got := ids(c.Filter(Query{Difficulty: DifficultyBeginner}))
	want := []string{"tax-faq-subsidy-application", "visa-article-management-guide"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("beginner mismatch (-want +got):\n%s", diff)
	}

	all := ids(c.Articles())
	for _, id := range []string{"expert", "初级", ""} {
		if diff := cmp.Diff(all, ids(c.Filter(Query{Difficulty: id}))); diff != "" {
			t.Errorf("difficulty %q should not filter (-want +got):\n%s", id, diff)
		}
	}
}

func TestFilterSearch(t *testing.T) {
	c := loadFixture(t)
	tests := []struct {
		search string
		want   []string
	}{
		{"税务 补助", []string{"tax-faq-subsidy-application"}},
		{"BUSINESS visa", []string{"visa-article-management-guide"}},
		{"法人税", []string{"tax-article-declaration-guide"}},
		{"高级", []string{"subsidy-faq-success-tips"}},
		{"nothing-matches-this", []string{}},
	}
	for _, tt := range tests {
		got := ids(c.Filter(Query{Search: tt.search}))
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("search %q mismatch (-want +got):\n%s", tt.search, diff)
		}
	}

	if n := len(c.Filter(Query{Search: "   \t "})); n != c.Len() {
		t.Errorf("blank search returned %d articles, want %d", n, c.Len())
	}
}

func TestSearchTokenOrderDoesNotMatter(t *testing.T) {
	c := loadFixture(t)
	pairs := [][2]string{
		{"税务 补助", "补助 税务"},
		{"申请 补助金 技巧", "技巧 申请 补助金"},
	}
	for _, p := range pairs {
		a := ids(c.Filter(Query{Search: p[0]}))
		b := ids(c.Filter(Query{Search: p[1]}))
		sort.Strings(a)
		sort.Strings(b)
		if diff := cmp.Diff(a, b); diff != "" {
			t.Errorf("%q vs %q differ:\n%s", p[0], p[1], diff)
		}
	}
}

func TestQueryWith(t *testing.T) {
	featured := QuickFeatured
	q := Query{}.With(Patch{Category: strp("tax"), Quick: &featured})
	q = q.With(Patch{Search: strp("税务")})
	want := Query{Category: "tax", Quick: QuickFeatured, Search: "税务"}
	if diff := cmp.Diff(want, q); diff != "" {
		t.Errorf("accumulated query mismatch (-want +got):\n%s", diff)
	}

	q = q.With(Patch{Category: strp("")})
	if q.Category != "" || q.Search != "税务" {
		t.Errorf("clearing category: got %+v", q)
	}
	if (Query{}).With(Patch{}).Quick != QuickAll {
		t.Error("empty query should default to QuickAll")
	}
}

func TestQueryValuesRoundTrip(t *testing.T) {
	q := Query{Category: "tax", Subcategory: "corporate", Quick: QuickRecent, Difficulty: "advanced", Search: "法人税"}
	if diff := cmp.Diff(q, QueryFromValues(q.Values())); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	if enc := (Query{}).normalize().Values().Encode(); enc != "" {
		t.Errorf("default query should encode empty, got %q", enc)
	}
}

func TestPopularTags(t *testing.T) {
	c := loadFixture(t)
	got := c.PopularTags(3)
	if len(got) != 3 {
		t.Fatalf("PopularTags(3) returned %d tags", len(got))
	}
	if got[0] != (TagCount{Tag: "补助金", Count: 2}) {
		t.Errorf("top tag = %+v, want 补助金 x2", got[0])
	}
	all := c.PopularTags(0)
	for i := 1; i < len(all); i++ {
		if all[i].Count > all[i-1].Count {
			t.Errorf("tags not descending at %d: %+v after %+v", i, all[i], all[i-1])
		}
	}
	counts := map[string]int{}
	for _, a := range c.Articles() {
		for _, tag := range a.Tags {
			counts[tag]++
		}
	}
	if len(all) != len(counts) {
		t.Errorf("PopularTags(0) has %d tags, want %d", len(all), len(counts))
	}
	for _, tc := range all {
		if counts[tc.Tag] != tc.Count {
			t.Errorf("count for %q = %d, want %d", tc.Tag, tc.Count, counts[tc.Tag])
		}
	}
}

func TestRecommended(t *testing.T) {
	c := loadFixture(t)
	results := c.Filter(Query{Quick: QuickPopular})
	got := ids(Recommended(results, 2))
	want := []string{"subsidy-article-it-digital", "visa-article-management-guide"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Recommended mismatch (-want +got):\n%s", diff)
	}
	if n := len(Recommended(c.Filter(Query{Category: "subsidy", Difficulty: DifficultyAdvanced}), 3)); n != 0 {
		t.Errorf("expected no recommendations, got %d", n)
	}
	for _, n := range []int{0, -1} {
		if got := Recommended(results, n); len(got) != 0 {
			t.Errorf("Recommended(results, %d) = %v, want none", n, ids(got))
		}
	}
}

func TestParseViewsAndDate(t *testing.T) {
	views := map[string]int64{"2,340": 2340, "980次": 980, "": 0, "n/a": 0, "1.2万": 12}
	for in, want := range views {
		if got := ParseViews(in); got != want {
			t.Errorf("ParseViews(%q) = %d, want %d", in, got, want)
		}
	}
	d := ParseDate("2024年03月15日")
	if d.Year() != 2024 || d.Month() != 3 || d.Day() != 15 {
		t.Errorf("ParseDate = %v", d)
	}
	if !ParseDate("2024-03-15").IsZero() {
		t.Error("ParseDate should reject ISO dates")
	}
	for _, bad := range []string{"2024年02月31日", "2023年02月29日", "2024年04月31日"} {
		if got := ParseDate(bad); !got.IsZero() {
			t.Errorf("ParseDate(%q) = %v, want zero", bad, got)
		}
	}
	if ParseDate("2024年02月29日").IsZero() {
		t.Error("ParseDate should accept a leap day")
	}
	if FormatDate(d) != "2024年03月15日" {
		t.Errorf("FormatDate = %q", FormatDate(d))
	}
}

func TestSnapshotAndExport(t *testing.T) {
	c := loadFixture(t)
	s := c.Snapshot(Query{Category: "subsidy"})
	if s.Total != 5 || s.Matched != 2 || s.ByCategory["subsidy"] != 2 {
		t.Errorf("unexpected snapshot: %+v", s)
	}
	if s.Query.Quick != QuickAll {
		t.Errorf("snapshot query should be normalized, got %q", s.Query.Quick)
	}

	out, err := c.Export(Query{Category: "legal"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), `"articles": []`) {
		t.Errorf("empty export should contain an empty array: %s", out)
	}
}
