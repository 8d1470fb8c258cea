package query

import (
	"fmt"
)

// Kind 指标类型
type Kind int

const (
	RevenueByCountry Kind = iota
	RevenueEvolution
	MarginByProduct
	MarginDistribution
)

func (k Kind) String() string {
	switch k {
	case RevenueByCountry:
		return "revenue_by_country"
	case RevenueEvolution:
		return "revenue_evolution"
	case MarginByProduct:
		return "margin_by_product"
	case MarginDistribution:
		return "margin_distribution"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Metric 一次指标查询；MarginDistribution 需要 ProductID
type Metric struct {
	Kind      Kind
	ProductID string
}

// Of 无参数指标
func Of(k Kind) Metric {
	return Metric{Kind: k}
}

// DistributionFor 指定产品的毛利分布
func DistributionFor(productID string) Metric {
	return Metric{Kind: MarginDistribution, ProductID: productID}
}

func (m Metric) String() string {
	if m.Kind == MarginDistribution {
		return fmt.Sprintf("%s(%s)", m.Kind, m.ProductID)
	}
	return m.Kind.String()
}

// QueryError 指标查询执行失败（非致命，跳过该指标）
type QueryError struct {
	Metric Metric
	Err    error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %s failed: %v", e.Metric, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}
