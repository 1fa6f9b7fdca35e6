package registry

import "econcli/pkg/contracts/domain"

// defaultCatalog is the built-in indicator set. Series identities and
// metadata mirror the published BLS/FRED catalogs.
func defaultCatalog() []Entry {
	return []Entry{
		{
			Ticker:       "cpi",
			Aliases:      []string{"cpi_all_items", "all items"},
			BLSSeriesID:  "CUUR0000SA0",
			FREDSeriesID: "CPIAUCSL",
			Info: domain.SeriesInfo{
				ID:                 "CPIAUCSL",
				Name:               "Consumer Price Index for All Urban Consumers: All Items",
				Category:           "inflation",
				Frequency:          "monthly",
				Units:              "index_1982_84_100",
				SeasonalAdjustment: "seasonally_adjusted",
				SourceAgency:       "Bureau of Labor Statistics",
			},
		},
		{
			Ticker:       "cpi_core",
			Aliases:      []string{"core_cpi", "all items less food and energy"},
			BLSSeriesID:  "CUUR0000SA0L1E",
			FREDSeriesID: "CPILFESL",
			Info: domain.SeriesInfo{
				ID:                 "CPILFESL",
				Name:               "Consumer Price Index for All Urban Consumers: All Items Less Food and Energy",
				Category:           "inflation",
				Frequency:          "monthly",
				Units:              "index_1982_84_100",
				SeasonalAdjustment: "seasonally_adjusted",
				SourceAgency:       "Bureau of Labor Statistics",
			},
		},
		{
			Ticker:       "cpi_food",
			Aliases:      []string{"food"},
			BLSSeriesID:  "CUUR0000SAF1",
			FREDSeriesID: "CPIUFDSL",
			Info: domain.SeriesInfo{
				ID:                 "CPIUFDSL",
				Name:               "Consumer Price Index for All Urban Consumers: Food",
				Category:           "inflation",
				Frequency:          "monthly",
				Units:              "index_1982_84_100",
				SeasonalAdjustment: "seasonally_adjusted",
				SourceAgency:       "Bureau of Labor Statistics",
			},
		},
		{
			Ticker:       "cpi_energy",
			Aliases:      []string{"energy"},
			BLSSeriesID:  "CUUR0000SA0E",
			FREDSeriesID: "CPIENGSL",
			Info: domain.SeriesInfo{
				ID:                 "CPIENGSL",
				Name:               "Consumer Price Index for All Urban Consumers: Energy",
				Category:           "inflation",
				Frequency:          "monthly",
				Units:              "index_1982_84_100",
				SeasonalAdjustment: "seasonally_adjusted",
				SourceAgency:       "Bureau of Labor Statistics",
			},
		},
		{
			Ticker:       "cpi_shelter",
			Aliases:      []string{"shelter"},
			BLSSeriesID:  "CUUR0000SAH1",
			FREDSeriesID: "CUSR0000SAH1",
			Info: domain.SeriesInfo{
				ID:                 "CUSR0000SAH1",
				Name:               "Consumer Price Index for All Urban Consumers: Shelter",
				Category:           "inflation",
				Frequency:          "monthly",
				Units:              "index_1982_84_100",
				SeasonalAdjustment: "seasonally_adjusted",
				SourceAgency:       "Bureau of Labor Statistics",
			},
		},
		{
			Ticker:       "ppi",
			Aliases:      []string{"ppi_final_demand"},
			BLSSeriesID:  "WPUFD4",
			FREDSeriesID: "PPIFIS",
			Info: domain.SeriesInfo{
				ID:                 "PPIFIS",
				Name:               "Producer Price Index by Commodity: Final Demand",
				Category:           "inflation",
				Frequency:          "monthly",
				Units:              "index_nov_2009_100",
				SeasonalAdjustment: "seasonally_adjusted",
				SourceAgency:       "Bureau of Labor Statistics",
			},
		},
		{
			Ticker:       "unemployment",
			Aliases:      []string{"unrate", "unemployment_rate"},
			BLSSeriesID:  "LNS14000000",
			FREDSeriesID: "UNRATE",
			Info: domain.SeriesInfo{
				ID:                 "UNRATE",
				Name:               "Unemployment Rate",
				Category:           "employment",
				Frequency:          "monthly",
				Units:              "percent",
				SeasonalAdjustment: "seasonally_adjusted",
				SourceAgency:       "Bureau of Labor Statistics",
			},
		},
	}
}
