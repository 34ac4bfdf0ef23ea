package sqlinline

// QEnsureSchema creates the tables used when projects and preferences live
// in a directly connected Postgres database.
const QEnsureSchema = `--sql 1a5c00fc-77a3-448d-91f5-1eca5a09389c
create table if not exists projects (
  id            uuid primary key,
  user_id       text not null,
  name          text not null,
  data          jsonb not null default '{}'::jsonb,
  thumbnail_url text,
  created_at    timestamptz not null default now(),
  updated_at    timestamptz not null default now()
);
create index if not exists projects_user_updated_idx on projects (user_id, updated_at desc);
create table if not exists user_preferences (
  user_id              text primary key,
  default_style        text not null default 'Realistic',
  default_aspect_ratio text not null default '1:1',
  theme                text not null default 'dark',
  auto_save            boolean not null default true,
  updated_at           timestamptz not null default now()
);`
