// Package radar 实现告警到雷达光点的投影。
// 角度仅为展示约定（均匀分布），量级决定光点到圆心的距离：
// 量级越大越靠近中心。
package radar

import (
	"smart-money-radar/internal/core/model"
)

// 信号颜色
const (
	// ColorBullish 看多（祖母绿）
	ColorBullish = "#10b981"
	// ColorBearish 看空（红）
	ColorBearish = "#ef4444"
	// ColorNeutral 中性（琥珀）
	ColorNeutral = "#f59e0b"
)

// weightTable 量级权重表，未知量级取 defaultWeight
var weightTable = map[string]float64{
	string(model.MagnitudeMassive):     1.0,
	string(model.MagnitudeLarge):       0.8,
	string(model.MagnitudeSignificant): 0.6,
	string(model.MagnitudeMinor):       0.4,
	string(model.UrgencyModerate):      0.4,
}

// defaultWeight 权重表未覆盖的量级使用的默认权重
const defaultWeight = 0.5

// Project 将告警投影为雷达光点
// 参数 alerts: 已排序的告警（取前 maxBlips 条）
// 参数 maxBlips: 光点数量上限
// 角度按 i*360/N 均匀分布，distance = 1 - weight*0.6（范围 0.4-1.0），
// strength 即权重本身。
func Project(alerts []model.Alert, maxBlips int) []model.RadarBlip {
	if maxBlips <= 0 || len(alerts) == 0 {
		return []model.RadarBlip{}
	}
	if len(alerts) > maxBlips {
		alerts = alerts[:maxBlips]
	}

	n := len(alerts)
	blips := make([]model.RadarBlip, 0, n)

	for i := range alerts {
		a := &alerts[i]
		weight := blipWeight(a.Magnitude)

		blips = append(blips, model.RadarBlip{
			Symbol:    a.Symbol,
			Angle:     float64(i) * 360 / float64(n),
			Distance:  1.0 - weight*0.6,
			Strength:  weight,
			Label:     a.Headline,
			Color:     blipColor(a.Signal),
			Type:      a.AlertType,
			Signal:    a.Signal,
			Timestamp: a.Timestamp,
		})
	}

	return blips
}

// blipWeight 量级到权重的映射
func blipWeight(magnitude string) float64 {
	if w, ok := weightTable[magnitude]; ok {
		return w
	}
	return defaultWeight
}

// blipColor 信号到颜色的映射
func blipColor(signal model.SignalLabel) string {
	switch signal {
	case model.SignalBullish:
		return ColorBullish
	case model.SignalBearish:
		return ColorBearish
	default:
		return ColorNeutral
	}
}
