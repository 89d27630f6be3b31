package config

// CommissionConfig carries the partner-program settings the engines are
// configured with. The default plan is an explicit setting injected into the
// plan resolver rather than a query-on-demand singleton.
type CommissionConfig struct {
	MaxLevels           int     `yaml:"max_levels"`
	DefaultPlanName     string  `yaml:"default_plan_name"`
	MinWithdrawalAmount float64 `yaml:"min_withdrawal_amount"`
	RequireApproval     bool    `yaml:"require_approval"`
	MinDepositAmount    float64 `yaml:"min_deposit_amount"`
}

func loadCommissionConfig() *CommissionConfig {
	return &CommissionConfig{
		MaxLevels:           getEnvAsInt("COMMISSION_MAX_LEVELS", 5),
		DefaultPlanName:     getEnv("COMMISSION_DEFAULT_PLAN", "standard"),
		MinWithdrawalAmount: getEnvAsFloat64("COMMISSION_MIN_WITHDRAWAL", 50.0),
		RequireApproval:     getEnvAsBool("COMMISSION_REQUIRE_APPROVAL", true),
		MinDepositAmount:    getEnvAsFloat64("WALLET_MIN_DEPOSIT", 10.0),
	}
}
