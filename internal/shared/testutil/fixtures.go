package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"yeogiro/pkg/contracts/domain"
)

// SampleShelters is a small shelter set around Seoul City Hall.
func SampleShelters() []domain.Shelter {
	return []domain.Shelter{
		{ID: "s-cityhall", Name: "Seoul City Hall B2", Kind: "civil_defense", Capacity: 1200,
			Location: domain.Point{Lat: 37.5663, Lng: 126.9779}},
		{ID: "s-gwanghwamun", Name: "Gwanghwamun Station", Kind: "civil_defense", Capacity: 3000,
			Location: domain.Point{Lat: 37.5711, Lng: 126.9768}},
		{ID: "s-seoulstation", Name: "Seoul Station Underground", Kind: "earthquake", Capacity: 5000,
			Location: domain.Point{Lat: 37.5547, Lng: 126.9707}},
		{ID: "s-busan", Name: "Busan Station", Kind: "civil_defense", Capacity: 2500,
			Location: domain.Point{Lat: 35.1151, Lng: 129.0422}},
	}
}

// WriteShelterSeed writes shelters as a JSON seed file in dir.
func WriteShelterSeed(t *testing.T, dir string, shelters []domain.Shelter) string {
	t.Helper()
	raw, err := json.Marshal(shelters)
	if err != nil {
		t.Fatalf("marshal shelters: %v", err)
	}
	path := filepath.Join(dir, "shelters.json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write shelter seed: %v", err)
	}
	return path
}

// FacilityHeader is the header row of the emergency facility sheet.
var FacilityHeader = []string{"id", "name", "category", "address", "phone", "latitude", "longitude"}

// SampleFacilityRows returns data rows matching FacilityHeader.
func SampleFacilityRows() [][]string {
	return [][]string{
		{"f-snuh", "Seoul National University Hospital", "hospital", "101 Daehak-ro", "02-2072-2114", "37.5796", "126.9990"},
		{"f-severance", "Severance Hospital", "hospital", "50-1 Yonsei-ro", "1599-1004", "37.5622", "126.9408"},
		{"f-jongno-fire", "Jongno Fire Station", "fire_station", "", "119", "37.5730", "126.9794"},
		{"f-cityhall-pharm", "City Hall Pharmacy", "pharmacy", "", "", "37.5659", "126.9772"},
	}
}

// WriteFacilitySheet writes header and rows to the first sheet of a new
// workbook at dir/name.
func WriteFacilitySheet(t *testing.T, dir, name string, rows [][]string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	all := append([][]string{FacilityHeader}, rows...)
	for r, row := range all {
		cells := make([]any, len(row))
		for i, v := range row {
			cells[i] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			t.Fatalf("write row %d: %v", r+1, err)
		}
	}

	path := filepath.Join(dir, name)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook %s: %v", path, err)
	}
	return path
}
