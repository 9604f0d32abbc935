package dto_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/okian/bnet/internal/domain/dto"
	"github.com/okian/bnet/internal/domain/endpoint"
	. "github.com/smartystreets/goconvey/convey"
)

const realmDoc = `{
  "_links": {"self": {"href": "https://eu.api.blizzard.com/data/wow/realm/tarren-mill?namespace=dynamic-eu"}},
  "id": 1084,
  "region": {"key": {"href": "https://eu.api.blizzard.com/data/wow/region/3"}, "name": "Europe", "id": 3},
  "connected_realm": {"href": "https://eu.api.blizzard.com/data/wow/connected-realm/1084"},
  "name": "Tarren Mill",
  "category": "English",
  "locale": "enGB",
  "timezone": "Europe/Paris",
  "type": {"type": "PVP", "name": "PvP"},
  "is_tournament": false,
  "slug": "tarren-mill"
}`

func TestRealm(t *testing.T) {
	Convey("Given a realm document from the API", t, func() {
		realm, err := endpoint.Decode[dto.Realm]([]byte(realmDoc))

		Convey("Then renamed wire fields land on Go fields", func() {
			So(err, ShouldBeNil)
			So(realm.ID, ShouldEqual, 1084)
			So(realm.Slug, ShouldEqual, "tarren-mill")
			So(realm.Region.Name, ShouldEqual, "Europe")
			So(realm.ConnectedURL.Href, ShouldEndWith, "/connected-realm/1084")
			So(realm.Type.Type, ShouldEqual, "PVP")
			So(realm.Links.Self.Href, ShouldContainSubstring, "namespace=dynamic-eu")
		})

		Convey("Then re-encoding and decoding yields an equal value", func() {
			data, err := json.Marshal(realm)
			So(err, ShouldBeNil)
			again, err := endpoint.Decode[dto.Realm](data)
			So(err, ShouldBeNil)
			So(*again, ShouldResemble, *realm)
		})
	})

	Convey("Given a realm document without a slug", t, func() {
		_, err := endpoint.Decode[dto.Realm]([]byte(`{"id": 1, "name": "Nowhere"}`))
		var de *endpoint.DecodeError
		So(errors.As(err, &de), ShouldBeTrue)
		So(de.Field, ShouldEqual, "slug")
	})
}

func TestCharacterProfile(t *testing.T) {
	Convey("Given a character with a guild", t, func() {
		in := dto.CharacterProfile{
			ID:             42,
			Name:           "Thrall",
			Level:          80,
			CharacterClass: dto.KeyRef{ID: 7, Name: "Shaman"},
			Realm:          dto.KeyRef{ID: 1084, Slug: "tarren-mill"},
			Guild:          &dto.KeyRef{ID: 9, Name: "Horde Council"},
		}
		data, err := json.Marshal(in)
		So(err, ShouldBeNil)

		out, err := endpoint.Decode[dto.CharacterProfile](data)

		Convey("Then the round trip preserves every field", func() {
			So(err, ShouldBeNil)
			So(*out, ShouldResemble, in)
			So(string(data), ShouldContainSubstring, `"character_class"`)
		})
	})

	Convey("Given a character without a guild", t, func() {
		data, _ := json.Marshal(dto.CharacterProfile{ID: 1, Name: "Solo"})
		So(string(data), ShouldNotContainSubstring, `"guild"`)
		out, err := endpoint.Decode[dto.CharacterProfile](data)
		So(err, ShouldBeNil)
		So(out.Guild, ShouldBeNil)
	})
}

func TestCharacterMedia(t *testing.T) {
	Convey("Given media with an incomplete asset", t, func() {
		_, err := endpoint.Decode[dto.CharacterMedia]([]byte(`{"character": {"id": 7}, "assets": [{"key": "avatar"}]}`))
		So(errors.Is(err, endpoint.ErrDecode), ShouldBeTrue)
	})

	Convey("Given media with complete assets", t, func() {
		m, err := endpoint.Decode[dto.CharacterMedia]([]byte(`{"character": {"id": 7, "name": "Thrall"}, "assets": [{"key": "avatar", "value": "https://render/x.jpg"}]}`))
		So(err, ShouldBeNil)
		So(m.Assets, ShouldHaveLength, 1)
		So(m.Character.ID, ShouldEqual, 7)
	})

	Convey("Given an empty media document", t, func() {
		m, err := endpoint.Decode[dto.CharacterMedia]([]byte(`{}`))
		So(m, ShouldBeNil)
		var de *endpoint.DecodeError
		So(errors.As(err, &de), ShouldBeTrue)
		So(de.Field, ShouldEqual, "character")
	})
}

func TestRequiredMeansNonZero(t *testing.T) {
	Convey("Given a mount whose required id is present but zero", t, func() {
		_, err := endpoint.Decode[dto.Mount]([]byte(`{"id": 0, "name": "Brown Horse"}`))
		So(errors.Is(err, endpoint.ErrDecode), ShouldBeTrue)
	})
}
