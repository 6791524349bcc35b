package services

import (
	"testing"

	"rancher-dashboard/models"
	"rancher-dashboard/utils"
)

func newTestLogger() *utils.Logger { return utils.NewDiscardLogger() }

func sampleLookup() []models.StateCode {
	return []models.StateCode{
		{State: "Iowa", Code: "IA"},
		{State: "Texas", Code: "TX"},
		{State: "California", Code: "CA"},
		{State: "Nebraska", Code: "NE"},
	}
}

func sampleRaw() []models.RawRecord {
	return []models.RawRecord{
		{State: "Iowa", Year: "2012", TotalPopulation: 1000, TotalRegistered: 500, FarmersNoFeed: 50, FarmersFeed: 120},
		{State: "Texas", Year: "2012", TotalPopulation: 4000, TotalRegistered: 2000, FarmersNoFeed: 80, FarmersFeed: 200},
		{State: "California", Year: "2012", TotalPopulation: 9000, TotalRegistered: 3000, FarmersNoFeed: 30, FarmersFeed: 90},
		{State: "Iowa", Year: "2017", TotalPopulation: 1100, TotalRegistered: 550, FarmersNoFeed: 45, FarmersFeed: 110},
		{State: "Texas", Year: "2017", TotalPopulation: 4400, TotalRegistered: 2100, FarmersNoFeed: 85, FarmersFeed: 210},
		{State: "California", Year: "2017", TotalPopulation: 9500, TotalRegistered: 3100, FarmersNoFeed: 25, FarmersFeed: 70},
	}
}

func sampleDataset(t *testing.T) *models.Dataset {
	t.Helper()
	ds, err := NewEnricher(newTestLogger()).Enrich(sampleRaw(), sampleLookup())
	if err != nil {
		t.Fatalf("enrich sample data: %v", err)
	}
	return ds
}
