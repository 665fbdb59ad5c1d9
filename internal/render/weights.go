package render

import (
	"math"
	"sort"
)

// densityEntry is one measured glyph: its relative ink coverage in [0,1].
type densityEntry struct {
	weight float64
	glyph  rune
}

// densityTables holds glyph coverage measured offline per font, sorted by
// weight. The calibration tool that produced them is not part of this module.
var densityTables = map[string][]densityEntry{
	"Consolas": {
		{0.0, ' '}, {0.0338256817950028, '`'}, {0.06038400256465478, '_'}, {0.1031548341232787, '\''},
		{0.14023629970635199, '"'}, {0.19635218230015475, '.'}, {0.22601551259737007, '^'}, {0.25891135929878006, ','},
		{0.2735762462995739, '-'}, {0.3445939809589873, ':'}, {0.3774437364649546, '~'}, {0.41085416064945796, '*'},
		{0.4323972714254259, ';'}, {0.45845451342385996, '='}, {0.46881434969863267, 'r'}, {0.47530120492049516, 'L'},
		{0.479260689294568, '!'}, {0.481913796090146, '/'}, {0.4923376277517668, '\\'}, {0.5121580280119277, '['},
		{0.5139450800354002, '<'}, {0.5200041366478282, '>'}, {0.5248836437583435, 'C'}, {0.5383723147703382, 'c'},
		{0.5402922301421171, '?'}, {0.5440060762685631, '('}, {0.5636446958916976, ')'}, {0.5761369690804913, 'J'},
		{0.5819986427359428, 'F'}, {0.5877564331006455, 'U'}, {0.5882627238464987, ']'}, {0.590060670274725, '|'},
		{0.6023798259281136, '7'}, {0.6095596251074707, '{'}, {0.6105722133199729, 'j'}, {0.6106637337127919, 'n'},
		{0.6157497203730258, 'u'}, {0.6160997258084664, 'T'}, {0.6276263555208564, '+'}, {0.6312958074519822, 'v'},
		{0.6324782200115308, '}'}, {0.6463269910894083, 'O'}, {0.6490122232734695, 'h'}, {0.6537678325729626, 'o'},
		{0.6569075617149418, 'P'}, {0.6608656649661401, 'H'}, {0.6646286098427036, 'D'}, {0.6725079763206332, 'Y'},
		{0.673600780552851, 't'}, {0.6781875164974477, 'f'}, {0.6806166461598506, 'l'}, {0.6810801153758481, 'i'},
		{0.6817768296979745, '3'}, {0.6930214683957272, '5'}, {0.6996269556876324, 's'}, {0.7059324805655696, '2'},
		{0.7149349788521866, 'y'}, {0.7157369710295225, 'E'}, {0.7162526070374449, 'I'}, {0.7176051934252519, 'z'},
		{0.7207869476831692, 'G'}, {0.7210831262909205, 'b'}, {0.72134874209446, 'p'}, {0.7229038965307116, 'Z'},
		{0.7242675755866551, 'M'}, {0.7252316766411642, 'x'}, {0.7268772727830275, 'd'}, {0.7269886161535278, '1'},
		{0.7298606359650802, 'Q'}, {0.7323440662710492, '%'}, {0.7327817881307134, 'q'}, {0.7333136078071439, 'w'},
		{0.7418663069698506, 'S'}, {0.742039989051831, 'V'}, {0.7531816551262294, 'e'}, {0.7613307740555255, 'k'},
		{0.7718015370116589, 'm'}, {0.7723422012511125, 'a'}, {0.7800802429028889, '9'}, {0.7832353727410407, '6'},
		{0.796812687646632, 'K'}, {0.800469743075864, 'W'}, {0.8075584284703562, 'R'}, {0.8076400793792844, 'X'},
		{0.8151893675717421, 'A'}, {0.8233377203306864, '4'}, {0.8356712013534359, 'N'}, {0.8378120325373746, 'g'},
		{0.8564806536105232, '0'}, {0.8614395736060404, '8'}, {0.8630910638829851, 'B'}, {0.8651030238694034, '#'},
		{0.9436950480696324, '&'}, {0.9642596887365757, '$'}, {1.0, '@'},
	},
}

// sampleDensity picks, for n evenly spaced weights over [0,1], the glyph whose
// measured weight is closest. Neighbouring picks that land on the same glyph
// collapse, so sparse regions of the table yield fewer than n glyphs.
func sampleDensity(table []densityEntry, n int) string {
	if n == 0 || len(table) == 0 {
		return ""
	}
	out := make([]rune, 0, n)
	var last rune = -1
	for k := 0; k < n; k++ {
		w := 0.0
		if n > 1 {
			w = float64(k) / float64(n-1)
		}
		g := nearestGlyph(table, w)
		if g == last {
			continue
		}
		out = append(out, g)
		last = g
	}
	return string(out)
}

func nearestGlyph(table []densityEntry, w float64) rune {
	i := sort.Search(len(table), func(i int) bool { return table[i].weight >= w })
	switch {
	case i == 0:
		return table[0].glyph
	case i == len(table):
		return table[len(table)-1].glyph
	}
	if math.Abs(table[i].weight-w) <= math.Abs(table[i-1].weight-w) {
		return table[i].glyph
	}
	return table[i-1].glyph
}
