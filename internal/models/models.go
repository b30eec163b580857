package models

// All lists every persisted model, in dependency order.
func All() []interface{} {
	return []interface{}{
		&Leaser{},
		&LeasingDuration{},
		&LeaserCoefficient{},
		&Product{},
		&ProductImage{},
		&Cart{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&OrderPriceOverride{},
		&OrderTracking{},
		&OrderLog{},
	}
}
