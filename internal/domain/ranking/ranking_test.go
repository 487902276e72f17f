package ranking

import (
	"testing"

	"github.com/playforge/ladder/internal/domain/model"
)

func records(scores ...float64) []model.Record {
	out := make([]model.Record, len(scores))
	for i, s := range scores {
		out[i] = model.Record{GUID: string(rune('a' + i)), Score: s}
	}
	return out
}

func TestRank_DescendingWithDenseRanks(t *testing.T) {
	ranked := Rank(records(10, 30, 20))

	wantScores := []float64{30, 20, 10}
	for i, want := range wantScores {
		if ranked[i].Score != want {
			t.Errorf("position %d: score = %v, want %v", i, ranked[i].Score, want)
		}
		if ranked[i].Rank != i+1 {
			t.Errorf("position %d: rank = %d, want %d", i, ranked[i].Rank, i+1)
		}
	}
}

func TestRank_TieKeepsInsertionOrder(t *testing.T) {
	list := []model.Record{
		{GUID: "first-in", Score: 50},
		{GUID: "second-in", Score: 50},
		{GUID: "loser", Score: 1},
	}

	ranked := Rank(list)

	if ranked[0].GUID != "first-in" || ranked[1].GUID != "second-in" {
		t.Errorf("tie order broken: got %q then %q", ranked[0].GUID, ranked[1].GUID)
	}
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	list := records(10, 30, 20)
	Rank(list)
	if list[0].Score != 10 || list[1].Score != 30 || list[2].Score != 20 {
		t.Errorf("input mutated: %+v", list)
	}
}

func TestPaginate_BasicSlicing(t *testing.T) {
	res := Paginate(records(5, 4, 3, 2, 1), 2, 2)

	if res.Page != 2 || res.PageSize != 2 {
		t.Errorf("page/pageSize = %d/%d", res.Page, res.PageSize)
	}
	if res.Total != 5 || res.TotalPages != 3 {
		t.Errorf("total/totalPages = %d/%d", res.Total, res.TotalPages)
	}
	if len(res.Items) != 2 || res.Items[0].Rank != 3 || res.Items[1].Rank != 4 {
		t.Errorf("unexpected page: %+v", res.Items)
	}
}

func TestPaginate_ClampsPageIntoRange(t *testing.T) {
	res := Paginate(records(10, 30, 20), 99, 10)

	if res.Page != 1 {
		t.Errorf("page = %d, want 1", res.Page)
	}
	if res.TotalPages != 1 {
		t.Errorf("totalPages = %d, want 1", res.TotalPages)
	}
	if len(res.Items) != 3 {
		t.Errorf("items = %d, want 3", len(res.Items))
	}
}

func TestPaginate_ClampsPageSize(t *testing.T) {
	res := Paginate(records(1, 2, 3), 1, 1000)
	if res.PageSize != MaxPageSize {
		t.Errorf("pageSize = %d, want %d", res.PageSize, MaxPageSize)
	}

	res = Paginate(records(1, 2, 3), 1, -5)
	if res.PageSize != MinPageSize {
		t.Errorf("pageSize = %d, want %d", res.PageSize, MinPageSize)
	}
}

func TestPaginate_EmptyCollection(t *testing.T) {
	res := Paginate(nil, 1, 10)

	if res.Total != 0 {
		t.Errorf("total = %d, want 0", res.Total)
	}
	if res.TotalPages != 1 {
		t.Errorf("totalPages = %d, want 1", res.TotalPages)
	}
	if len(res.Items) != 0 {
		t.Errorf("items = %d, want 0", len(res.Items))
	}
}
