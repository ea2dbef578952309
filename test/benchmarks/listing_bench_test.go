package benchmarks

import (
	"fmt"
	"testing"
	"time"

	"github.com/ammerola/keuringen-be/internal/core/domain"
	"github.com/ammerola/keuringen-be/internal/workers"
	"github.com/ammerola/keuringen-be/test/helpers"
)

func BenchmarkFilter(b *testing.B) {
	for _, n := range []int{100, 1000, 10000} {
		records := helpers.CreateTestInspections(n)

		b.Run(fmt.Sprintf("%d_records", n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = domain.Filter(records, "Klant1")
			}
		})
	}
}

func BenchmarkListView(b *testing.B) {
	records := helpers.CreateTestInspections(1000)

	b.Run("Search", func(b *testing.B) {
		view := domain.NewListView(records, "")
		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_ = view.Search("Straat 9")
		}
	})

	b.Run("GoTo", func(b *testing.B) {
		view := domain.NewListView(records, "")
		pages := view.TotalPages()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			v, _ := view.GoTo(i%pages + 1)
			_ = v.Items()
		}
	})
}

func BenchmarkPresentation(b *testing.B) {
	loc, _ := time.LoadLocation("Europe/Brussels")
	visit := time.Date(2024, 5, 3, 14, 0, 0, 0, time.UTC)
	rec := helpers.CreateTestInspection(func(r *domain.Inspection) {
		r.Status = domain.StatusPlanned
		r.SiteVisitAt = &visit
	})

	b.Run("StatusLabel", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			_ = domain.StatusLabel(rec, loc)
		}
	})

	b.Run("StatusColor", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = domain.StatusColor(rec, i)
		}
	})
}

func BenchmarkBuildWorkbook(b *testing.B) {
	loc, _ := time.LoadLocation("Europe/Brussels")
	for _, n := range []int{100, 2000} {
		records := helpers.CreateTestInspections(n)

		b.Run(fmt.Sprintf("%d_rows", n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := workers.BuildWorkbook(records, loc); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
