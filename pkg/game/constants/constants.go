package constants

import "time"

// Purchasable SKUs.
const (
	SKUPremium     = "premium_unlock"
	SKUGasPack     = "gas_pack_25"
	SKUInfiniteGas = "infinite_gas_monthly"
)

// PayloadPrefix marks purchase payloads minted by this app.
// The prefix check is correlation only, not proof of anything.
const PayloadPrefix = "joyride-payload:"

// Gas tank and drive tuning.
const (
	GasTankCapacity = 100
	GasTankDefault  = 50
	GasPackUnits    = 25
	DriveGasCost    = 1
	DriveMiles      = 10
)

// Daily reward and boost tuning.
const (
	DailyRewardGas = 10
	MillisPerDay   = 86_400_000
	BoostDuration  = 5 * time.Minute
)

// Achievement identifiers awarded by the game manager.
const (
	AchievementFirstDrive  = "first_drive"
	AchievementCenturyClub = "century_club"
	CenturyClubMiles       = 100
)
