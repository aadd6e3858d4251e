package store

// Timestamps are TEXT in TimeFormat so lexical order is chronological and the
// driver never coerces them into time.Time.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS pendaftar (
	id                TEXT PRIMARY KEY,
	nomor_registrasi  TEXT NOT NULL UNIQUE,
	nisn              TEXT NOT NULL UNIQUE,
	namalengkap       TEXT NOT NULL,
	tanggallahir      TEXT,
	tempatlahir       TEXT,
	jeniskelamin      TEXT,
	namaayah          TEXT,
	namaibu           TEXT,
	telepon_orang_tua TEXT,
	email             TEXT,
	rencanatingkat    TEXT,
	rencanaprogram    TEXT,
	alamat            TEXT,
	desa              TEXT,
	file_akta         TEXT,
	file_ijazah       TEXT,
	file_foto         TEXT,
	file_bpjs         TEXT,
	status            TEXT NOT NULL DEFAULT 'pending',
	catatan_admin     TEXT,
	verified_by       TEXT,
	created_at        TEXT NOT NULL,
	updated_at        TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_pendaftar_created_at ON pendaftar(created_at);

CREATE TABLE IF NOT EXISTS pembayaran (
	id                 TEXT PRIMARY KEY,
	nomor_pembayaran   TEXT NOT NULL UNIQUE,
	nomor_registrasi   TEXT NOT NULL,
	nama_lengkap       TEXT,
	jumlah             TEXT NOT NULL,
	metode_pembayaran  TEXT,
	bukti_pembayaran   TEXT,
	status_pembayaran  TEXT NOT NULL DEFAULT 'PENDING',
	tanggal_upload     TEXT,
	tanggal_verifikasi TEXT,
	verified_by        TEXT,
	catatan_admin      TEXT,
	created_at         TEXT NOT NULL,
	updated_at         TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_pembayaran_registrasi ON pembayaran(nomor_registrasi);
`
