package rates

import "strings"

// aliases maps payment-method and network-specific symbols to the currency
// they settle in.
var aliases = map[string]string{
	// Banks and fiat
	"ANYBANK_RUB":    "RUB",
	"ALLBANKS_RUB":   "RUB",
	"TINKOFF_QR_RUB": "RUB",
	"SBER_QR_RUB":    "RUB",
	"OZON_RUB":       "RUB",
	"SBER_RUB":       "RUB",
	"TINKOFF_RUB":    "RUB",
	"ALFA_RUB":       "RUB",
	"SBP_RUB":        "RUB",
	"VISA_MC_RUB":    "RUB",
	"MIR_RUB":        "RUB",
	"HOME_RUB":       "RUB",
	"GAZPROM_RUB":    "RUB",
	"RAIFFEISEN_RUB": "RUB",
	"PSB_RUB":        "RUB",
	"VTB_RUB":        "RUB",
	"RNKB_RUB":       "RUB",
	"CASH_RUB":       "RUB",

	// Payment systems
	"VOLET_RUB":      "RUB",
	"VOLET_USD":      "USD",
	"VOLET_EUR":      "EUR",
	"PAYEER_RUB":     "RUB",
	"PAYEER_USD":     "USD",
	"CAPITALIST_RUB": "RUB",
	"CAPITALIST_USD": "USD",
	"MONEYGO_USD":    "USD",

	"ALIPAY_CNY": "CNY",
	"WECHAT_CNY": "CNY",

	"TETHER_TRC20":    "USDT",
	"TETHER_ERC20":    "USDT",
	"TETHER_BEP20":    "USDT",
	"TETHER_TON":      "USDT",
	"TETHER_POLYGON":  "USDT",
	"TETHER_SOL":      "USDT",
	"TETHER_ARBITRUM": "USDT",
	"TETHER_OPTIMISM": "USDT",

	"USDC_ERC20": "USDC",
	"USDC_BEP20": "USDC",
	"DAI":        "USDC",
}

// Canonical upper-cases symbol and resolves it through the alias table.
func Canonical(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if target, ok := aliases[s]; ok {
		return target
	}
	return s
}
