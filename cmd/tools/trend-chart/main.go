// Command trend-chart renders monthly case counts and the most common
// diseases for a species as an HTML chart page.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/vetcare-data/outbreak.report/internal/db"
	"github.com/vetcare-data/outbreak.report/internal/disease"
)

var (
	dbPath  = flag.String("db", "clinic.db", "Path to the clinic database")
	species = flag.String("species", "", "Species to chart (empty for all)")
	days    = flag.Int("days", 0, "Only chart cases from the last N days (0 for all)")
	outPath = flag.String("out", "trends.html", "Output HTML file")
)

func main() {
	flag.Parse()

	database, err := db.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	var cases []disease.Case
	if *days > 0 {
		cases, err = database.DiseaseCasesSince(time.Now().AddDate(0, 0, -*days))
	} else {
		cases, err = database.DiseaseCases()
	}
	if err != nil {
		log.Fatalf("Failed to load disease cases: %v", err)
	}

	trends := disease.SpeciesTrends(cases, *species)
	if trends.Status != disease.StatusSuccess {
		log.Fatalf("No trend data for species %q", trends.Species)
	}

	page := components.NewPage()
	page.AddCharts(monthlyChart(trends), diseaseChart(trends))

	f, err := os.Create(*outPath)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		log.Fatalf("Failed to render charts: %v", err)
	}
	log.Printf("wrote %s (%d cases, species %s)", *outPath, trends.TotalCases, trends.Species)
}

// monthlyChart plots the monthly case timeline in calendar order.
func monthlyChart(trends disease.TrendsResult) *charts.Line {
	months := make([]string, 0, len(trends.MonthlyTrends))
	for m := range trends.MonthlyTrends {
		months = append(months, m)
	}
	sort.Strings(months)

	points := make([]opts.LineData, len(months))
	for i, m := range months {
		points[i] = opts.LineData{Value: trends.MonthlyTrends[m]}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Monthly case counts",
			Subtitle: fmt.Sprintf("species=%s total=%d", trends.Species, trends.TotalCases),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	line.SetXAxis(months).AddSeries("cases", points)
	return line
}

// diseaseChart plots the most common diseases, highest count first.
func diseaseChart(trends disease.TrendsResult) *charts.Bar {
	names := make([]string, 0, len(trends.MostCommonDiseases))
	for name := range trends.MostCommonDiseases {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ci, cj := trends.MostCommonDiseases[names[i]], trends.MostCommonDiseases[names[j]]
		if ci != cj {
			return ci > cj
		}
		return names[i] < names[j]
	})

	values := make([]opts.BarData, len(names))
	for i, name := range names {
		values[i] = opts.BarData{Value: trends.MostCommonDiseases[name]}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Most common diseases"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(names).AddSeries("cases", values)
	return bar
}
