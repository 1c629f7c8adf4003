package cards

// defaultCards is the production catalog, grouped as in the field guide.
var defaultCards = []Card{
	// Genera
	{ID: "cirrus", BaseScore: 10, Rarity: RarityCommon},
	{ID: "cirrostratus", BaseScore: 10, Rarity: RarityCommon},
	{ID: "cirrocumulus", BaseScore: 15, Rarity: RarityUncommon},
	{ID: "altostratus", BaseScore: 10, Rarity: RarityCommon},
	{ID: "altocumulus", BaseScore: 10, Rarity: RarityCommon},
	{ID: "stratus", BaseScore: 10, Rarity: RarityCommon},
	{ID: "stratocumulus", BaseScore: 10, Rarity: RarityCommon},
	{ID: "nimbostratus", BaseScore: 10, Rarity: RarityCommon},
	{ID: "cumulus", BaseScore: 10, Rarity: RarityCommon},
	{ID: "cumulonimbus", BaseScore: 15, Rarity: RarityFrequent},

	// Species
	{ID: "fibratus", BaseScore: 10, Rarity: RarityCommon},
	{ID: "castellanus", BaseScore: 15, Rarity: RarityUncommon},
	{ID: "lenticularis", BaseScore: 20, Rarity: RarityUncommon},
	{ID: "undulatus", BaseScore: 15, Rarity: RarityUncommon},
	{ID: "radiatus", BaseScore: 15, Rarity: RarityUncommon},
	{ID: "lacunosus", BaseScore: 25, Rarity: RarityRare},

	// Varieties
	{ID: "duplicatus", BaseScore: 15, Rarity: RarityUncommon},
	{ID: "perlucidus", BaseScore: 10, Rarity: RarityCommon},
	{ID: "translucidus", BaseScore: 10, Rarity: RarityCommon},
	{ID: "opacus", BaseScore: 10, Rarity: RarityCommon},

	// Accessory clouds and supplementary features
	{ID: "incus", BaseScore: 20, Rarity: RarityUncommon},
	{ID: "mamma", BaseScore: 30, Rarity: RarityRare},
	{ID: "pileus", BaseScore: 25, Rarity: RarityRare},
	{ID: "velum", BaseScore: 20, Rarity: RarityUncommon},
	{ID: "pannus", BaseScore: 15, Rarity: RarityCommon},
	{ID: "tuba", BaseScore: 35, Rarity: RarityRare},
	{ID: "praecipitatio", BaseScore: 10, Rarity: RarityCommon},
	{ID: "virga", BaseScore: 20, Rarity: RarityUncommon},

	// Dynamic and boundary clouds
	{ID: "arcus", BaseScore: 25, Rarity: RarityRare},
	{ID: "shelf_cloud", BaseScore: 30, Rarity: RarityRare},
	{ID: "roll_cloud", BaseScore: 30, Rarity: RarityRare},
	{ID: "cap_cloud", BaseScore: 10, Rarity: RarityUncommon},
	{ID: "banner_cloud", BaseScore: 10, Rarity: RarityUncommon},
	{ID: "cloud_streets", BaseScore: 15, Rarity: RarityUncommon},
	{ID: "waves_in_clouds", BaseScore: 15, Rarity: RarityUncommon},
	{ID: "horseshoe_vortex", BaseScore: 50, Rarity: RarityLegendary},

	// Optical phenomena
	{ID: "halo", BaseScore: 15, Rarity: RarityUncommon},
	{ID: "halo_22", BaseScore: 15, Rarity: RarityUncommon},
	{ID: "sundogs", BaseScore: 25, Rarity: RarityRare},
	{ID: "sun_pillars", BaseScore: 25, Rarity: RarityRare},
	{ID: "subsun", BaseScore: 30, Rarity: RarityRare},
	{ID: "circumzenithal_arc", BaseScore: 30, Rarity: RarityRare},
	{ID: "corona", BaseScore: 20, Rarity: RarityUncommon},
	{ID: "glory", BaseScore: 25, Rarity: RarityRare},
	{ID: "iridescence", BaseScore: 20, Rarity: RarityUncommon},

	// Rainbows
	{ID: "rainbow", BaseScore: 15, Rarity: RarityUncommon},
	{ID: "cloudbow", BaseScore: 25, Rarity: RarityRare},
	{ID: "fogbow", BaseScore: 25, Rarity: RarityRare},

	// Special optics
	{ID: "brocken_spectre", BaseScore: 30, Rarity: RarityRare},
	{ID: "diamond_dust", BaseScore: 30, Rarity: RarityRare},
	{ID: "glitter_paths", BaseScore: 15, Rarity: RarityUncommon},

	// High altitude and polar
	{ID: "noctilucent", BaseScore: 45, Rarity: RarityLegendary},
	{ID: "nacreous", BaseScore: 45, Rarity: RarityLegendary},

	// Holes and anomalies
	{ID: "fallstreak_hole", BaseScore: 35, Rarity: RarityRare},
	{ID: "hole_punch", BaseScore: 35, Rarity: RarityRare},
	{ID: "fallstreaks", BaseScore: 20, Rarity: RarityUncommon},
	{ID: "holes_in_clouds", BaseScore: 25, Rarity: RarityRare},

	// Dramatic
	{ID: "morning_glory", BaseScore: 40, Rarity: RarityLegendary},
	{ID: "kelvin_helmholtz", BaseScore: 55, Rarity: RarityMythic},
	{ID: "jellyfish_clouds", BaseScore: 30, Rarity: RarityRare},
	{ID: "ufo_clouds", BaseScore: 25, Rarity: RarityRare},

	// Storm systems
	{ID: "storm", BaseScore: 15, Rarity: RarityCommon},
	{ID: "multicell", BaseScore: 20, Rarity: RarityUncommon},
	{ID: "supercell", BaseScore: 35, Rarity: RarityRare},
	{ID: "gust_front", BaseScore: 15, Rarity: RarityUncommon},
	{ID: "landspout", BaseScore: 40, Rarity: RarityLegendary},
	{ID: "waterspout", BaseScore: 35, Rarity: RarityRare},
	{ID: "funnel_cloud", BaseScore: 30, Rarity: RarityRare},
	{ID: "pyrocumulus", BaseScore: 10, Rarity: RarityUncommon},
	{ID: "fumulus", BaseScore: 5, Rarity: RarityCommon},

	// Human-made
	{ID: "contrail", BaseScore: 10, Rarity: RarityCommon},
	{ID: "distrail", BaseScore: 10, Rarity: RarityUncommon},

	// Fog
	{ID: "fog", BaseScore: 15, Rarity: RarityCommon},
	{ID: "mist", BaseScore: 10, Rarity: RarityCommon},
}
