// Package dto contains data-transfer objects mirroring Battle.net JSON
// documents. Struct tags carry the rename table between wire names and Go
// field names; validate tags mark fields a response cannot be decoded without.
package dto

// Raw holds any JSON object, for endpoints declared only in configuration.
type Raw = map[string]any

// Link is the "_links" block present on every document.
type Link struct {
	Self Href `json:"self"`
}

// Href points at another API resource.
type Href struct {
	Href string `json:"href"`
}

// KeyRef is a reference to another resource by key, id and display name.
type KeyRef struct {
	Key  Href   `json:"key"`
	Name string `json:"name,omitempty"`
	ID   int    `json:"id"`
	Slug string `json:"slug,omitempty"`
}

// TypedName is an enumerated value with its localized label.
type TypedName struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// Realm is returned by /data/wow/realm/{realmSlug}.
type Realm struct {
	Links        Link      `json:"_links"`
	ID           int       `json:"id" validate:"required"`
	Region       KeyRef    `json:"region"`
	ConnectedURL Href      `json:"connected_realm"`
	Name         string    `json:"name" validate:"required"`
	Category     string    `json:"category"`
	Locale       string    `json:"locale"`
	Timezone     string    `json:"timezone"`
	Type         TypedName `json:"type"`
	Tournament   bool      `json:"is_tournament"`
	Slug         string    `json:"slug" validate:"required"`
}

// CharacterProfile is returned by /profile/wow/character/{realmSlug}/{characterName}.
type CharacterProfile struct {
	Links             Link      `json:"_links"`
	ID                int       `json:"id" validate:"required"`
	Name              string    `json:"name" validate:"required"`
	Gender            TypedName `json:"gender"`
	Faction           TypedName `json:"faction"`
	Race              KeyRef    `json:"race"`
	CharacterClass    KeyRef    `json:"character_class"`
	ActiveSpec        KeyRef    `json:"active_spec"`
	Realm             KeyRef    `json:"realm"`
	Guild             *KeyRef   `json:"guild,omitempty"`
	Level             int       `json:"level"`
	Experience        int64     `json:"experience"`
	AchievementPoints int       `json:"achievement_points"`
	LastLoginUnixMS   int64     `json:"last_login_timestamp"`
	AverageItemLevel  int       `json:"average_item_level"`
	EquippedItemLevel int       `json:"equipped_item_level"`
}

// MediaAsset is one rendered image of a character.
type MediaAsset struct {
	Key   string `json:"key" validate:"required"`
	Value string `json:"value" validate:"required"`
}

// CharacterMedia is returned by .../character/{realmSlug}/{characterName}/character-media.
type CharacterMedia struct {
	Links     Link         `json:"_links"`
	Character KeyRef       `json:"character" validate:"required"`
	Assets    []MediaAsset `json:"assets" validate:"dive"`
}

// Guild is returned by /data/wow/guild/{realmSlug}/{nameSlug}.
type Guild struct {
	Links             Link      `json:"_links"`
	ID                int       `json:"id" validate:"required"`
	Name              string    `json:"name" validate:"required"`
	Faction           TypedName `json:"faction"`
	AchievementPoints int       `json:"achievement_points"`
	MemberCount       int       `json:"member_count"`
	Realm             KeyRef    `json:"realm"`
	CreatedUnixMS     int64     `json:"created_timestamp"`
}

// PlayableClass is returned by /data/wow/playable-class/{classId}.
type PlayableClass struct {
	Links        Link     `json:"_links"`
	ID           int      `json:"id" validate:"required"`
	Name         string   `json:"name" validate:"required"`
	PowerType    KeyRef   `json:"power_type"`
	Specs        []KeyRef `json:"specializations"`
	PvPTalentURL Href     `json:"pvp_talent_slots"`
}

// Mount is returned by /data/wow/mount/{mountId}.
type Mount struct {
	Links       Link       `json:"_links"`
	ID          int        `json:"id" validate:"required"`
	Name        string     `json:"name" validate:"required"`
	Description string     `json:"description"`
	Source      TypedName  `json:"source"`
	Faction     *TypedName `json:"faction,omitempty"`
	Unobtained  bool       `json:"should_exclude_if_uncollected"`
}
