package config

// DefaultDiscoveryTags is the hashtag list walked by the discover command
// when neither the config file nor flags provide one.
var DefaultDiscoveryTags = []string{
	"#HumanRights",
	"#RefugeesWelcome",
	"#MeToo",
	"#FreedomOfSpeech",
	"#WomensRights",
	"#EndViolence",
	"#EqualityNow",
	"#StandWithUkraine",
	"#SudanCrisis",
	"#IranProtests",
	"#ClimateCrisis",
	"#FridaysForFuture",
	"#ActOnClimate",
}

// DefaultTrendTerms is the search term list walked by the trends command.
// Spelling is kept as collected; fixing a typo changes the output file name.
var DefaultTrendTerms = []string{
	// country specific
	"#FreePalestine",
	"#Gaza",
	"#GazaCeasefire",
	"#FreeGaza",
	"#UkraineWar",
	"#StandWithUkraine",
	"#SlavaUkraine",
	"#RussiaUkraineWar",
	"#StopPutin",
	"#SyriaWar",
	"#SaveSyria",
	"#TurkishWomenNeedHelp",
	"#FreeMamoglu",
	"#WeNeedToTalkAboutYemen",
	"#PeaceInYemen",
	"#WhatsHappeningInMyanmar",
	"#MilkTeaAlliance",
	"#POSCO_StopSupportingSAC",
	"#AfghanistanWar",
	"#Taliban",
	"#IraqWar",
	"#StopIraq",
	"#Somaliland",
	"#SomaliaHumanRights",
	"#IndiaPakistan",
	"#SaveIndia",
	"#PakistanArmy",
	"#PakistanZindabad",
	"#StopGunViolence",
	"#BlackLivesMatter",
	"#StandWithMexico",
	"#PeaceForMexico",
	"#SaveBrazil",
	"#RioCrisis",

	// thematic
	"#NeverAgain",
	"#FightForDemocracy",
	"#FreedomOfSpeech",
	"#HumanRights",
	"#FreePress",
	"#YouthForDemocracy",
	"#Protest",
	"#DemoncracyForAll",
	"#NeverForget",
	"#CivilRights",
	"#Justice",
	"#FightForFreedom",
	"#Activism",
	"#FridaysForFuture",
	"#PeopleNotProfit",
	"#MeToo",
	"#StopFundingHate",
	"#WomensMarch",
	"#TimesUp",
	"#GenerationEquality",
	"#MyBodyMyChoice",
	"#ProChoice",
	"#LoveIsLove",
	"#TransRigths",
	"#EqualityForAll",
	"#TransRightsAreHumanRights",
	"#EndSexualViolence",
	"#WomensRights",
	"#LGBTQ+",
	"#GayRights",
	"#ImmigrantRights",
	"#WarCrimes",
	"#PeceNotWar",
	"#AntiWar",
	"#StopWar",
	"#StopTheWar",
	"#HummanatarianCrisis",
	"#RefugeeRelief",
	"#PeaceForAll",
	"#Solidarity",
	"#Ceasefire",
	"#CeasefireNOW",
	"#StopGenocide",
	"#HummanatarianAid",
	"#StandWithPeace",
	"#StandWithhummanity",
	"#EndTheViolence",

	// regional
	"#MiddleEastCrisis",
	"#MENA",
	"#PeaceInMiddleEast",
	"#EuropeanSolidarity",
	"#RejoinEU",
	"#SouthAsiaPeace",
	"#SouthAsiaUnity",
	"#LatinAmericaSolidarity",
	"#LatinAmericaUnited",
	"#NorthAmericaUnited",
	"#FreedomConvoy2022",
}
