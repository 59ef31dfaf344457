package models

// Tag vocabularies offered by the journal. Stored values are free-form
// strings; these lists drive prompts and validation hints only.
var (
	Sessions = []string{"London", "New York", "Asia", "Sydney"}

	Pairs = []string{
		"EURUSD", "GBPUSD", "USDJPY", "USDCHF", "AUDUSD", "NZDUSD", "USDCAD",
		"EURGBP", "EURJPY", "GBPJPY", "XAUUSD", "XAGUSD", "US30", "NAS100", "SPX500",
	}

	Strategies = []string{
		"Breakout", "Liquidity Sweep", "Trend Continuation", "Reversal",
		"Range Play", "News Trade", "Scalp", "Swing", "Order Block Entry",
	}

	MarketConditions = []string{"Trending", "Ranging", "High Volatility", "Low Volatility"}

	Confluences = []string{
		"Support/Resistance", "FVG", "Order Block", "News Catalyst",
		"EMA Alignment", "RSI Divergence", "Volume Profile", "Fibonacci",
		"Trendline Break", "Liquidity Zone", "VWAP", "Market Structure Shift",
	}

	Timeframes = []string{"M1", "M5", "M15", "M30", "H1", "H4", "D1", "W1", "MN"}

	LiquiditySweepTypes = []string{"PDH", "PDL", "Asian High", "Asian Low", "Internal", "External"}

	KeyLevelTypes = []string{"OB", "FVG", "RB", "BB"}

	EntryTypes = []string{"FVG Mitigation", "OB Tap", "Breaker", "Confirmation BOS", "Aggressive", "Conservative"}

	TradeLocations = []Location{LocationPremium, LocationDiscount, LocationEQ}
)
