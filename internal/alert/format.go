package alert

import (
	"fmt"
	"strings"

	"github.com/tferreyra/farewatch/internal/amadeus"
	"github.com/tferreyra/farewatch/internal/state"
)

// Message renders the Telegram alert text. Telegram HTML parse mode.
func Message(offer *amadeus.Offer, st state.PriceState, d Decision) string {
	var b strings.Builder

	fmt.Fprintf(&b, "✈️ <b>Alert %s</b>\n", offer.Route)
	fmt.Fprintf(&b, "Airlines: %s\n", offer.CarrierSummary())
	if offer.HasNights {
		fmt.Fprintf(&b, "Nights at destination: %d\n", offer.Nights)
	}
	fmt.Fprintf(&b, "💰 Price: <b>%s %s</b>\n", offer.Total.StringFixed(2), offer.Currency)
	if st.MinPrice != nil {
		fmt.Fprintf(&b, "🧭 Historical minimum: %s %s\n", st.MinPrice.StringFixed(2), offer.Currency)
	}
	if len(d.Reasons) > 0 {
		fmt.Fprintf(&b, "— %s\n", strings.Join(d.Reasons, " | "))
	}
	b.WriteString("\nℹ️ Found via Amadeus Flight Offers Search.")

	return b.String()
}
