package domain

import "github.com/shopspring/decimal"

// PortfolioStatistics is the engine's portfolio-level summary record.
type PortfolioStatistics struct {
	AverageWinRate           decimal.Decimal
	AverageLossRate          decimal.Decimal
	ProfitLossRatio          decimal.Decimal
	WinRate                  decimal.Decimal
	LossRate                 decimal.Decimal
	Expectancy               decimal.Decimal
	StartEquity              decimal.Decimal
	EndEquity                decimal.Decimal
	CompoundingAnnualReturn  decimal.Decimal
	Drawdown                 decimal.Decimal
	TotalNetProfit           decimal.Decimal
	SharpeRatio              decimal.Decimal
	ProbabilisticSharpeRatio decimal.Decimal
	SortinoRatio             decimal.Decimal
	Alpha                    decimal.Decimal
	Beta                     decimal.Decimal
	AnnualStandardDeviation  decimal.Decimal
	AnnualVariance           decimal.Decimal
	InformationRatio         decimal.Decimal
	TrackingError            decimal.Decimal
	TreynorRatio             decimal.Decimal
	PortfolioTurnover        decimal.Decimal
	ValueAtRisk99            decimal.Decimal
	ValueAtRisk95            decimal.Decimal
	DrawdownRecovery         int
}

// TradeStatistics is the engine's trade-level summary record. Date and
// duration fields are kept as the engine's text.
type TradeStatistics struct {
	StartDateTime               Text
	EndDateTime                 Text
	TotalNumberOfTrades         int
	NumberOfWinningTrades       int
	NumberOfLosingTrades        int
	TotalProfitLoss             decimal.Decimal
	TotalProfit                 decimal.Decimal
	TotalLoss                   decimal.Decimal
	LargestProfit               decimal.Decimal
	LargestLoss                 decimal.Decimal
	AverageProfitLoss           decimal.Decimal
	AverageProfit               decimal.Decimal
	AverageLoss                 decimal.Decimal
	AverageTradeDuration        Text
	AverageWinningTradeDuration Text
	AverageLosingTradeDuration  Text
	MedianTradeDuration         Text
	MedianWinningTradeDuration  Text
	MedianLosingTradeDuration   Text
	MaxConsecutiveWinningTrades int
	MaxConsecutiveLosingTrades  int
	ProfitLossRatio             decimal.Decimal
	WinLossRatio                decimal.Decimal
	WinRate                     decimal.Decimal
	LossRate                    decimal.Decimal
	AverageMAE                  decimal.Decimal
	AverageMFE                  decimal.Decimal
	LargestMAE                  decimal.Decimal
	LargestMFE                  decimal.Decimal
	MaximumClosedTradeDrawdown  decimal.Decimal
	MaximumIntraTradeDrawdown   decimal.Decimal
	ProfitLossStandardDeviation decimal.Decimal
	ProfitLossDownsideDeviation decimal.Decimal
	ProfitFactor                decimal.Decimal
	SharpeRatio                 decimal.Decimal
	SortinoRatio                decimal.Decimal
	ProfitToMaxDrawdownRatio    decimal.Decimal
	MaximumEndTradeDrawdown     decimal.Decimal
	AverageEndTradeDrawdown     decimal.Decimal
	MaximumDrawdownDuration     Text
	TotalFees                   decimal.Decimal
}
