package database

import (
	"context"
	"fmt"
)

// schema creates every table the service reads or writes. Statements are
// idempotent so Migrate can run on every start.
const schema = `
CREATE EXTENSION IF NOT EXISTS "pgcrypto";

CREATE TABLE IF NOT EXISTS users (
    id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
    username varchar(255) NOT NULL,
    email varchar(254) NOT NULL DEFAULT '',
    first_name varchar(150) NOT NULL DEFAULT '',
    last_name varchar(150) NOT NULL DEFAULT '',
    is_active boolean NOT NULL DEFAULT true,
    is_staff boolean NOT NULL DEFAULT false,
    date_joined timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW(),
    CONSTRAINT users_username_unique UNIQUE (username)
);

CREATE TABLE IF NOT EXISTS cors_config (
    config_key text PRIMARY KEY,
    allowed_origins text NOT NULL,
    allow_credentials boolean NOT NULL DEFAULT true,
    max_age integer NOT NULL DEFAULT 86400,
    created_at timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS ratelimit_config (
    config_key text PRIMARY KEY,
    rate text NOT NULL,
    created_at timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS categorias_vehiculo (
    id_categoria serial PRIMARY KEY,
    nombre varchar(100) NOT NULL UNIQUE,
    codigo varchar(50) NOT NULL UNIQUE,
    descripcion text,
    activo boolean NOT NULL DEFAULT true,
    fecha_creacion timestamptz NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS vehiculos (
    id_vehiculo serial PRIMARY KEY,
    placa varchar(20) UNIQUE,
    descripcion_api text,
    marca varchar(100),
    modelo varchar(100),
    anio_registro_api varchar(10),
    vin varchar(100),
    uso varchar(200),
    propietario text,
    delivery_point text,
    fecha_registro_api timestamptz,
    image_url_api text,
    datos_api jsonb,
    fecha_actualizacion_api timestamptz NOT NULL DEFAULT NOW(),
    tipo_vehiculo varchar(50)
);

CREATE TABLE IF NOT EXISTS anuncios (
    id_anuncio serial PRIMARY KEY,
    id_usuario varchar(255) NOT NULL,
    titulo varchar(200),
    modelo varchar(100) NOT NULL,
    anio integer NOT NULL CHECK (anio >= 1900),
    kilometraje integer NOT NULL CHECK (kilometraje >= 0),
    precio numeric(12, 2) NOT NULL CHECK (precio >= 0.01),
    descripcion text NOT NULL,
    email_contacto varchar(255),
    telefono_contacto varchar(20),
    tipo_vehiculo varchar(50),
    id_categoria integer REFERENCES categorias_vehiculo(id_categoria) ON DELETE SET NULL,
    fecha_creacion timestamptz NOT NULL DEFAULT NOW(),
    fecha_actualizacion timestamptz NOT NULL DEFAULT NOW(),
    activo boolean NOT NULL DEFAULT true
);

CREATE INDEX IF NOT EXISTS anuncios_activo_idx ON anuncios (activo);

CREATE TABLE IF NOT EXISTS imagenes (
    id_imagen serial PRIMARY KEY,
    id_anuncio integer NOT NULL REFERENCES anuncios(id_anuncio) ON DELETE CASCADE,
    url_imagen text NOT NULL,
    nombre_archivo varchar(255),
    tipo_archivo varchar(50),
    tamano_archivo bigint,
    fecha_subida timestamptz NOT NULL DEFAULT NOW(),
    orden integer NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS notificaciones (
    id_notificacion serial PRIMARY KEY,
    id_usuario integer,
    id_vendedor varchar(255),
    id_comprador varchar(255),
    nombre_comprador varchar(255),
    email_comprador varchar(255),
    id_anuncio integer REFERENCES anuncios(id_anuncio) ON DELETE SET NULL,
    titulo varchar(200),
    mensaje text,
    leido boolean NOT NULL DEFAULT false,
    leida boolean NOT NULL DEFAULT false,
    fecha_creacion timestamptz NOT NULL DEFAULT NOW(),
    metadata jsonb,
    tipo varchar(50) NOT NULL DEFAULT 'interes'
);

CREATE INDEX IF NOT EXISTS notificaciones_vendedor_idx ON notificaciones (id_vendedor);

CREATE TABLE IF NOT EXISTS historial_busqueda (
    id_historial serial PRIMARY KEY,
    id_usuario varchar(255),
    placa_consultada varchar(20),
    fecha_consulta timestamptz NOT NULL DEFAULT NOW(),
    resultado_api jsonb
);

CREATE INDEX IF NOT EXISTS historial_busqueda_fecha_idx ON historial_busqueda (fecha_consulta);
`

// Migrate applies the schema.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
