package position

import (
	"fmt"

	"rsi_bot/internal/models"
)

// AvgPricePolicy считает новую среднюю цену после добавления транша size по price.
type AvgPricePolicy func(pos models.Position, size, price float64) float64

// OverwriteAvgPrice: средняя = цена последнего транша.
func OverwriteAvgPrice(_ models.Position, _ float64, price float64) float64 {
	return price
}

// WeightedAvgPrice: средневзвешенная по объёму.
func WeightedAvgPrice(pos models.Position, size, price float64) float64 {
	total := pos.Size + size
	if total == 0 {
		return 0
	}
	return (pos.Size*pos.AvgPrice + size*price) / total
}

// PolicyByName: "" и "overwrite" => OverwriteAvgPrice, "weighted" => WeightedAvgPrice.
func PolicyByName(name string) (AvgPricePolicy, error) {
	switch name {
	case "", "overwrite":
		return OverwriteAvgPrice, nil
	case "weighted":
		return WeightedAvgPrice, nil
	default:
		return nil, fmt.Errorf("unknown avg price policy %q", name)
	}
}
