package services

import (
	"sort"

	"veribuy/models"
	"veribuy/utils"
)

const riskiestLimit = 5

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate summarises the scan history. saved only contributes its size.
func (s *InsightService) Generate(history, saved []models.ScanRecord) *models.InsightReport {
	report := &models.InsightReport{
		SavedScans:      len(saved),
		VerdictCounts:   make(map[models.Verdict]int),
		ScansByCategory: make(map[string]int),
	}

	if len(history) == 0 {
		return report
	}

	report.TotalScans = len(history)

	var scored []*models.ScanRecord
	var totalScore float64

	for i := range history {
		rec := &history[i]
		report.FakeReviewTotal += rec.Reviews.FakeReviewCount
		if rec.Product.Category != "" {
			report.ScansByCategory[rec.Product.Category]++
		}

		// Neutral fallbacks say nothing about the product.
		if !isDegraded(rec, models.BranchAuthenticity) {
			report.VerdictCounts[rec.Authenticity.Verdict]++
			totalScore += rec.Authenticity.Score
			scored = append(scored, rec)
		}

		if deal, amount, ok := models.BestDeal(rec.Deals); ok {
			if report.CheapestDeal == nil || amount.LessThan(report.CheapestAmount) {
				d := deal
				report.CheapestDeal = &d
				report.CheapestAmount = amount
				report.CheapestProduct = rec.Product.Name
			}
		}
	}

	if len(scored) > 0 {
		report.AverageScore = round2(totalScore / float64(len(scored)))
	}

	// Lowest score first; newer scans win ties.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Authenticity.Score < scored[j].Authenticity.Score
	})
	if len(scored) > riskiestLimit {
		report.RiskiestProducts = scored[:riskiestLimit]
	} else {
		report.RiskiestProducts = scored
	}

	s.logger.Debug("[insights] %d scans, %d scored, %d saved", report.TotalScans, len(scored), report.SavedScans)
	return report
}

func isDegraded(rec *models.ScanRecord, branch string) bool {
	for _, b := range rec.Degraded {
		if b == branch {
			return true
		}
	}
	return false
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
