package stats

import (
	"strconv"

	"github.com/shopspring/decimal"

	"backtestvault/internal/domain"
)

type portfolioField struct {
	Name string
	Text func(*domain.PortfolioStatistics) string
}

type tradeField struct {
	Name string
	Text func(*domain.TradeStatistics) string
}

func num(d decimal.Decimal) string { return d.String() }

// portfolioFields lists the portfolio statistics in declaration order.
var portfolioFields = []portfolioField{
	{"AverageWinRate", func(p *domain.PortfolioStatistics) string { return num(p.AverageWinRate) }},
	{"AverageLossRate", func(p *domain.PortfolioStatistics) string { return num(p.AverageLossRate) }},
	{"ProfitLossRatio", func(p *domain.PortfolioStatistics) string { return num(p.ProfitLossRatio) }},
	{"WinRate", func(p *domain.PortfolioStatistics) string { return num(p.WinRate) }},
	{"LossRate", func(p *domain.PortfolioStatistics) string { return num(p.LossRate) }},
	{"Expectancy", func(p *domain.PortfolioStatistics) string { return num(p.Expectancy) }},
	{"StartEquity", func(p *domain.PortfolioStatistics) string { return num(p.StartEquity) }},
	{"EndEquity", func(p *domain.PortfolioStatistics) string { return num(p.EndEquity) }},
	{"CompoundingAnnualReturn", func(p *domain.PortfolioStatistics) string { return num(p.CompoundingAnnualReturn) }},
	{"Drawdown", func(p *domain.PortfolioStatistics) string { return num(p.Drawdown) }},
	{"TotalNetProfit", func(p *domain.PortfolioStatistics) string { return num(p.TotalNetProfit) }},
	{"SharpeRatio", func(p *domain.PortfolioStatistics) string { return num(p.SharpeRatio) }},
	{"ProbabilisticSharpeRatio", func(p *domain.PortfolioStatistics) string { return num(p.ProbabilisticSharpeRatio) }},
	{"SortinoRatio", func(p *domain.PortfolioStatistics) string { return num(p.SortinoRatio) }},
	{"Alpha", func(p *domain.PortfolioStatistics) string { return num(p.Alpha) }},
	{"Beta", func(p *domain.PortfolioStatistics) string { return num(p.Beta) }},
	{"AnnualStandardDeviation", func(p *domain.PortfolioStatistics) string { return num(p.AnnualStandardDeviation) }},
	{"AnnualVariance", func(p *domain.PortfolioStatistics) string { return num(p.AnnualVariance) }},
	{"InformationRatio", func(p *domain.PortfolioStatistics) string { return num(p.InformationRatio) }},
	{"TrackingError", func(p *domain.PortfolioStatistics) string { return num(p.TrackingError) }},
	{"TreynorRatio", func(p *domain.PortfolioStatistics) string { return num(p.TreynorRatio) }},
	{"PortfolioTurnover", func(p *domain.PortfolioStatistics) string { return num(p.PortfolioTurnover) }},
	{"ValueAtRisk99", func(p *domain.PortfolioStatistics) string { return num(p.ValueAtRisk99) }},
	{"ValueAtRisk95", func(p *domain.PortfolioStatistics) string { return num(p.ValueAtRisk95) }},
	{"DrawdownRecovery", func(p *domain.PortfolioStatistics) string { return strconv.Itoa(p.DrawdownRecovery) }},
}

// tradeFields lists the trade statistics in declaration order. Dates and
// durations keep the engine's text and are dropped by AddItem unless that
// text happens to be numeric.
var tradeFields = []tradeField{
	{"StartDateTime", func(t *domain.TradeStatistics) string { return string(t.StartDateTime) }},
	{"EndDateTime", func(t *domain.TradeStatistics) string { return string(t.EndDateTime) }},
	{"TotalNumberOfTrades", func(t *domain.TradeStatistics) string { return strconv.Itoa(t.TotalNumberOfTrades) }},
	{"NumberOfWinningTrades", func(t *domain.TradeStatistics) string { return strconv.Itoa(t.NumberOfWinningTrades) }},
	{"NumberOfLosingTrades", func(t *domain.TradeStatistics) string { return strconv.Itoa(t.NumberOfLosingTrades) }},
	{"TotalProfitLoss", func(t *domain.TradeStatistics) string { return num(t.TotalProfitLoss) }},
	{"TotalProfit", func(t *domain.TradeStatistics) string { return num(t.TotalProfit) }},
	{"TotalLoss", func(t *domain.TradeStatistics) string { return num(t.TotalLoss) }},
	{"LargestProfit", func(t *domain.TradeStatistics) string { return num(t.LargestProfit) }},
	{"LargestLoss", func(t *domain.TradeStatistics) string { return num(t.LargestLoss) }},
	{"AverageProfitLoss", func(t *domain.TradeStatistics) string { return num(t.AverageProfitLoss) }},
	{"AverageProfit", func(t *domain.TradeStatistics) string { return num(t.AverageProfit) }},
	{"AverageLoss", func(t *domain.TradeStatistics) string { return num(t.AverageLoss) }},
	{"AverageTradeDuration", func(t *domain.TradeStatistics) string { return string(t.AverageTradeDuration) }},
	{"AverageWinningTradeDuration", func(t *domain.TradeStatistics) string { return string(t.AverageWinningTradeDuration) }},
	{"AverageLosingTradeDuration", func(t *domain.TradeStatistics) string { return string(t.AverageLosingTradeDuration) }},
	{"MedianTradeDuration", func(t *domain.TradeStatistics) string { return string(t.MedianTradeDuration) }},
	{"MedianWinningTradeDuration", func(t *domain.TradeStatistics) string { return string(t.MedianWinningTradeDuration) }},
	{"MedianLosingTradeDuration", func(t *domain.TradeStatistics) string { return string(t.MedianLosingTradeDuration) }},
	{"MaxConsecutiveWinningTrades", func(t *domain.TradeStatistics) string { return strconv.Itoa(t.MaxConsecutiveWinningTrades) }},
	{"MaxConsecutiveLosingTrades", func(t *domain.TradeStatistics) string { return strconv.Itoa(t.MaxConsecutiveLosingTrades) }},
	{"ProfitLossRatio", func(t *domain.TradeStatistics) string { return num(t.ProfitLossRatio) }},
	{"WinLossRatio", func(t *domain.TradeStatistics) string { return num(t.WinLossRatio) }},
	{"WinRate", func(t *domain.TradeStatistics) string { return num(t.WinRate) }},
	{"LossRate", func(t *domain.TradeStatistics) string { return num(t.LossRate) }},
	{"AverageMAE", func(t *domain.TradeStatistics) string { return num(t.AverageMAE) }},
	{"AverageMFE", func(t *domain.TradeStatistics) string { return num(t.AverageMFE) }},
	{"LargestMAE", func(t *domain.TradeStatistics) string { return num(t.LargestMAE) }},
	{"LargestMFE", func(t *domain.TradeStatistics) string { return num(t.LargestMFE) }},
	{"MaximumClosedTradeDrawdown", func(t *domain.TradeStatistics) string { return num(t.MaximumClosedTradeDrawdown) }},
	{"MaximumIntraTradeDrawdown", func(t *domain.TradeStatistics) string { return num(t.MaximumIntraTradeDrawdown) }},
	{"ProfitLossStandardDeviation", func(t *domain.TradeStatistics) string { return num(t.ProfitLossStandardDeviation) }},
	{"ProfitLossDownsideDeviation", func(t *domain.TradeStatistics) string { return num(t.ProfitLossDownsideDeviation) }},
	{"ProfitFactor", func(t *domain.TradeStatistics) string { return num(t.ProfitFactor) }},
	{"SharpeRatio", func(t *domain.TradeStatistics) string { return num(t.SharpeRatio) }},
	{"SortinoRatio", func(t *domain.TradeStatistics) string { return num(t.SortinoRatio) }},
	{"ProfitToMaxDrawdownRatio", func(t *domain.TradeStatistics) string { return num(t.ProfitToMaxDrawdownRatio) }},
	{"MaximumEndTradeDrawdown", func(t *domain.TradeStatistics) string { return num(t.MaximumEndTradeDrawdown) }},
	{"AverageEndTradeDrawdown", func(t *domain.TradeStatistics) string { return num(t.AverageEndTradeDrawdown) }},
	{"MaximumDrawdownDuration", func(t *domain.TradeStatistics) string { return string(t.MaximumDrawdownDuration) }},
	{"TotalFees", func(t *domain.TradeStatistics) string { return num(t.TotalFees) }},
}
