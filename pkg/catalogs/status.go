package catalogs

// Status is an availability label as it appears in the price list.
type Status string

// Availability labels, from best to worst.
const (
	StatusInStock     Status = "В наличии"
	StatusReady2to5   Status = "Под заказ 2-5 дней"
	StatusReady7to14  Status = "Под заказ 7-14 дней"
	StatusReady14to21 Status = "Под заказ 14-21 дней"
)

// StatusUnavailable is assigned whenever no reliable stock data exists.
const StatusUnavailable = StatusReady14to21

// Statuses lists every label a classifier can produce, in priority order.
func Statuses() []Status {
	return []Status{StatusInStock, StatusReady2to5, StatusReady7to14, StatusReady14to21}
}

// String implements fmt.Stringer.
func (s Status) String() string {
	return string(s)
}
