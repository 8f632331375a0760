package launchbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colin969/exodos-launcher/internal/domain"
	"github.com/colin969/exodos-launcher/internal/errors"
)

const msdosXML = `<?xml version="1.0" standalone="yes"?>
<LaunchBox>
  <Game>
    <ID>0b3c1d2e-0000-4000-8000-000000000001</ID>
    <Title>Commander Keen 4: Secret of the Oracle</Title>
    <Developer>id Software</Developer>
    <Publisher>Apogee Software; FormGen</Publisher>
    <Series>Commander Keen</Series>
    <Genre>Platform; Action</Genre>
    <Platform>MS-DOS</Platform>
    <ReleaseDate>1991-12-15T00:00:00-08:00</ReleaseDate>
    <CommandLine>keen4.bat</CommandLine>
    <Installed>yes</Installed>
    <Favorite>0</Favorite>
    <Recommended>TRUE</Recommended>
    <StarRating>5</StarRating>
    <CustomBlock><Inner a="1">text</Inner></CustomBlock>
  </Game>
  <Game>
    <ID>0b3c1d2e-0000-4000-8000-000000000002</ID>
    <Title>Doom</Title>
    <Placeholder>maybe</Placeholder>
  </Game>
  <AdditionalApplication>
    <GameID>0b3c1d2e-0000-4000-8000-000000000001</GameID>
    <Name>Setup</Name>
  </AdditionalApplication>
</LaunchBox>`

func TestDecodePlatform_Fields(t *testing.T) {
	onError, errs := collectErrors()

	file, err := DecodePlatform([]byte(msdosXML), onError)
	require.NoError(t, err)
	require.Len(t, file.Games, 2)

	keen := file.Games[0]
	assert.Equal(t, "0b3c1d2e-0000-4000-8000-000000000001", keen.ID)
	assert.Equal(t, "Commander Keen 4: Secret of the Oracle", keen.Title)
	assert.Equal(t, "Commander Keen 4_ Secret of the Oracle", keen.ConvertedTitle)
	assert.Equal(t, "commander keen 4: secret of the oracle", keen.OrderTitle)
	assert.Equal(t, "Apogee Software; FormGen", keen.Publisher)
	assert.Equal(t, "keen4.bat", keen.LaunchCommand)
	assert.Equal(t, "1991-12-15T00:00:00-08:00", keen.ReleaseDate)
	assert.True(t, keen.Installed)
	assert.False(t, keen.Favorite)
	assert.True(t, keen.Recommended)
	assert.Equal(t, "", keen.Notes, "absent fields are empty strings")

	doom := file.Games[1]
	assert.False(t, doom.Placeholder)
	require.Len(t, *errs, 1, "unreadable boolean is reported")
	assert.Contains(t, (*errs)[0], "Placeholder")

	require.Len(t, file.Extra, 1)
	assert.Equal(t, "AdditionalApplication", file.Extra[0].Name)
}

func TestDecodePlatform_Malformed(t *testing.T) {
	_, err := DecodePlatform([]byte(`<LaunchBox><Game><ID>1</ID>`), nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrParse))
}

func TestDecodePlatform_Empty(t *testing.T) {
	file, err := DecodePlatform([]byte("  \n"), nil)

	require.NoError(t, err)
	assert.Empty(t, file.Games)
}

func TestEncodePlatform_PreservesUnknownElements(t *testing.T) {
	file, err := DecodePlatform([]byte(msdosXML), nil)
	require.NoError(t, err)

	platform := &domain.Platform{Name: "MS-DOS", Games: file.Games, Extra: file.Extra}
	platform.Games[0] = platform.Games[0].Clone()
	platform.Games[0].Favorite = true

	data, err := EncodePlatform(platform)
	require.NoError(t, err)

	again, err := DecodePlatform(data, nil)
	require.NoError(t, err)
	require.Len(t, again.Games, 2)

	keen := again.Games[0]
	assert.True(t, keen.Favorite)
	assert.Equal(t, file.Games[0].Title, keen.Title)
	assert.Equal(t, file.Games[0].Developer, keen.Developer)
	assert.Equal(t, file.Games[0].Extra, keen.Extra)
	assert.Equal(t, file.Extra, again.Extra)
	assert.Contains(t, string(data), `<Inner a="1">text</Inner>`)
}
