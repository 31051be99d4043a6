package users

import (
	"regexp"
	"strings"
)

// agencies is the closed list of regional government agencies a request can belong to.
var agencies = []string{
	"Sekretariat Daerah",
	"Sekretariat DPRD",
	"Inspektorat",
	"Dinas Pendidikan dan Kebudayaan",
	"Dinas Kepemudaan, Olahraga, dan Pariwisata",
	"Dinas Kesehatan",
	"Dinas Pemberdayaan Perempuan dan Perlindungan Anak, serta Pengendalian Penduduk dan Keluarga Berencana",
	"Dinas Sosial dan Pemberdayaan Masyarakat",
	"Dinas Kependudukan dan Pencatatan Sipil",
	"Satuan Polisi Pamong Praja",
	"Dinas Pemadam Kebakaran dan Penyelamatan",
	"Dinas Penanaman Modal dan Pelayanan Terpadu Satu Pintu",
	"Dinas Koperasi, Usaha Kecil dan Menengah, Perindustrian, dan Perdagangan",
	"Dinas Tenaga Kerja",
	"Dinas Komunikasi, Informatika, Statistik, dan Persandian",
	"Dinas Pekerjaan Umum dan Penataan Ruang",
	"Dinas Perumahan Rakyat dan Kawasan Permukiman Serta Pertanahan",
	"Dinas Perhubungan",
	"Dinas Lingkungan Hidup",
	"Dinas Ketahanan Pangan dan Pertanian",
	"Dinas Perikanan",
	"Dinas Perpustakaan dan Kearsipan",
	"Dinas Perdagangan",
	"Badan Kepegawaian dan Pengembangan Sumber Daya Manusia",
	"Badan Perencanaan Pembangunan Daerah, Penelitian dan Pengembangan",
	"Badan Pengelolaan Keuangan dan Aset Daerah",
	"Badan Pendapatan Daerah",
	"Badan Kesatuan Bangsa dan Politik",
	"Badan Penanggulangan Bencana Daerah",
}

// Agencies returns a copy of the agency catalog in display order.
func Agencies() []string {
	out := make([]string, len(agencies))
	copy(out, agencies)
	return out
}

// ValidAgency reports whether name is one of the known agencies.
func ValidAgency(name string) bool {
	for _, a := range agencies {
		if a == name {
			return true
		}
	}
	return false
}

var slugStrip = regexp.MustCompile(`[^a-z0-9_]`)

// AgencySlug turns an agency name into the local part used for seeded accounts.
func AgencySlug(name string) string {
	s := strings.ToLower(name)
	s = strings.NewReplacer(" ", "_", ",", "_", ".", "_", "&", "dan").Replace(s)
	return slugStrip.ReplaceAllString(s, "")
}
